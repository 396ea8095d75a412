package downloader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sunburst/pkg/archive"

	"github.com/dustin/go-humanize"
)

// Immutable
type httpHandler struct {
	client *http.Client
}

// NewHTTPHandler returns a SchemeHandler for http and https. Timeouts come
// from the request context, not the client.
func NewHTTPHandler(client *http.Client) SchemeHandler {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpHandler{client: client}
}

func (h *httpHandler) Schemes() []string {
	return []string{"http", "https"}
}

func (h *httpHandler) Download(ctx context.Context, uri string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	// Setting this ourselves turns off the transport's transparent gzip,
	// so both encodings are decoded below.
	req.Header.Set("Accept-Encoding", archive.AcceptEncoding)

	resp, err := h.client.Do(req)
	if err != nil {
		return &FetchError{URL: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{
			URL:        uri,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}

	enc, err := archive.ParseEncoding(resp.Header.Get("Content-Encoding"))
	if err != nil {
		return &ParseError{URL: uri, Err: err}
	}
	body, err := archive.NewReader(resp.Body, enc)
	if err != nil {
		return &ParseError{URL: uri, Err: err}
	}
	defer body.Close()

	pw := &progressWriter{
		uri:   uri,
		total: resp.ContentLength,
		start: time.Now(),
	}
	if _, err := io.Copy(io.MultiWriter(w, pw), body); err != nil {
		return &FetchError{URL: uri, Err: err}
	}
	pw.finish()
	return nil
}

// statusText strips the numeric code from resp.Status ("404 Not Found" -> "Not Found").
func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// Mutable
type progressWriter struct {
	uri     string
	total   int64
	written int64
	start   time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.written += int64(len(p))
	return len(p), nil
}

func (pw *progressWriter) finish() {
	elapsed := time.Since(pw.start)
	speed := float64(pw.written)
	if s := elapsed.Seconds(); s > 0 {
		speed /= s
	}
	attrs := []any{
		"url", pw.uri,
		"size", humanize.Bytes(uint64(pw.written)),
		"speed", humanize.Bytes(uint64(speed)) + "/s",
	}
	if pw.total > 0 {
		attrs = append(attrs, "transferred", humanize.Bytes(uint64(pw.total)))
	}
	slog.Debug("Fetched usage data", attrs...)
}
