package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Fetcher retrieves and decodes the usage document at one URL. Each attempt
// runs under its own timeout; temporary failures are retried with
// exponential backoff up to the configured count.
// Immutable
type Fetcher struct {
	dl         Downloader
	url        string
	timeout    time.Duration
	retries    int
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout bounds each attempt. Zero disables the bound.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithRetries sets how many times a temporary failure is retried.
func WithRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		f.retries = n
	}
}

// WithBackOff replaces the retry schedule.
func WithBackOff(fn func() backoff.BackOff) FetcherOption {
	return func(f *Fetcher) {
		f.newBackOff = fn
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a Fetcher for url.
func NewFetcher(dl Downloader, url string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		dl:      dl,
		url:     url,
		timeout: 10 * time.Second,
		newBackOff: func() backoff.BackOff {
			eb := backoff.NewExponentialBackOff()
			eb.InitialInterval = 250 * time.Millisecond
			eb.MaxInterval = 5 * time.Second
			eb.MaxElapsedTime = 0
			return eb
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the resolved document location.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch downloads the document and decodes it into generic JSON values
// (map[string]any, []any, float64, string, bool, nil).
// Errors are *FetchError, *ParseError or the context error.
func (f *Fetcher) Fetch(ctx context.Context) (any, error) {
	var doc any
	attempt := 0

	op := func() error {
		attempt++
		body, err := f.fetchOnce(ctx)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) && fe.Temporary() && ctx.Err() == nil {
				f.logger.Warn("Fetch attempt failed", "url", f.url, "attempt", attempt, "err", err)
				return err
			}
			return backoff.Permanent(err)
		}
		if err := json.Unmarshal(body, &doc); err != nil {
			return backoff.Permanent(&ParseError{URL: f.url, Err: err})
		}
		return nil
	}

	var b backoff.BackOff = f.newBackOff()
	b = backoff.WithMaxRetries(b, uint64(max(f.retries, 0)))
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return doc, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	var buf bytes.Buffer
	if err := f.dl.Download(ctx, f.url, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
