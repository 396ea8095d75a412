package card

import (
	"context"
	"fmt"
	"log/slog"

	"sunburst/pkg/cache"
	"sunburst/pkg/config"
	"sunburst/pkg/downloader"
	"sunburst/pkg/usage"

	"github.com/coder/quartz"
)

// newPipeline wires fetch, prepare and cache for one frozen config.
func newPipeline(cfg *config.Config, dl downloader.Downloader, clk quartz.Clock, logger *slog.Logger) (*cache.Cache, string, error) {
	url := cfg.JSONURL
	if cfg.BaseURL != "" {
		resolved, err := downloader.ResolveURL(cfg.BaseURL, cfg.JSONURL)
		if err != nil {
			return nil, "", &config.Error{Field: "json_url", Reason: err.Error()}
		}
		url = resolved
	}

	var selector *usage.Selector
	if cfg.Query != "" {
		s, err := usage.NewSelector(cfg.Query)
		if err != nil {
			return nil, "", &config.Error{Field: "query", Reason: err.Error()}
		}
		selector = s
	}

	logger = logger.With("url", url)
	fetcher := downloader.NewFetcher(dl, url,
		downloader.WithTimeout(cfg.FetchTimeout.Std()),
		downloader.WithRetries(cfg.Retries()),
		downloader.WithLogger(logger),
	)
	opts := usage.Options{
		Threshold: cfg.MinBytes,
		Selector:  selector,
		Logger:    logger,
	}

	load := func(ctx context.Context) (usage.Dataset, error) {
		v, err := fetcher.Fetch(ctx)
		if err != nil {
			return usage.Dataset{}, err
		}
		ds, err := usage.Prepare(v, opts)
		if err != nil {
			return usage.Dataset{}, fmt.Errorf("failed to prepare %s: %w", url, err)
		}
		return ds, nil
	}

	c := cache.New(load,
		cache.WithTTL(cfg.CacheTTL.Std()),
		cache.WithClock(clk),
		cache.WithLogger(logger),
	)
	return c, url, nil
}
