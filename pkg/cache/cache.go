// Package cache holds the most recently prepared dataset and makes sure at
// most one preparation runs at a time. Callers that arrive while a
// preparation is in flight share its result instead of starting another fetch.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sunburst/pkg/usage"

	"github.com/coder/quartz"
	"golang.org/x/sync/singleflight"
)

// LoadFunc runs the full pipeline: fetch, validate, filter, convert.
type LoadFunc func(ctx context.Context) (usage.Dataset, error)

// State is a snapshot of the cache.
type State struct {
	// Dataset is nil until the first preparation completes. After a failed
	// preparation it points at an empty Dataset.
	Dataset       *usage.Dataset
	FetchInFlight bool
	PreparedAt    time.Time
	// LastError is the error of the most recent preparation, if it failed.
	LastError error
}

// Cache is the prepared-data cache.
// Mutable
type Cache struct {
	load   LoadFunc
	clock  quartz.Clock
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.RWMutex
	state State
	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL bounds how long a prepared dataset is reused. Zero (the default)
// reuses it until a failure or Invalidate.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		c.ttl = d
	}
}

// WithClock replaces the clock used for TTL checks.
func WithClock(clk quartz.Clock) Option {
	return func(c *Cache) {
		c.clock = clk
	}
}

// WithLogger sets the logger used to report failed preparations.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// New creates an empty Cache backed by load.
func New(load LoadFunc, opts ...Option) *Cache {
	c := &Cache{
		load:   load,
		clock:  quartz.NewReal(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrPrepare returns the cached dataset when it is present, non-empty,
// fresh and no preparation is pending. Otherwise it runs (or joins) a
// preparation. Failures yield an empty Dataset, never an error.
func (c *Cache) GetOrPrepare(ctx context.Context) usage.Dataset {
	c.mu.RLock()
	if ds, ok := c.usableLocked(); ok {
		c.mu.RUnlock()
		return ds
	}
	c.mu.RUnlock()

	return c.prepare(ctx)
}

// Refresh runs a preparation regardless of the cached state, joining one
// that is already in flight.
func (c *Cache) Refresh(ctx context.Context) usage.Dataset {
	return c.prepare(ctx)
}

// Invalidate drops the cached dataset so the next GetOrPrepare refetches.
// A preparation in flight is not affected and installs its result.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Dataset = nil
	c.state.PreparedAt = time.Time{}
}

// Snapshot returns a copy of the current state.
func (c *Cache) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// usableLocked must be called with at least the read lock held.
func (c *Cache) usableLocked() (usage.Dataset, bool) {
	s := c.state
	if s.Dataset == nil || s.Dataset.IsEmpty() || s.FetchInFlight {
		return usage.Dataset{}, false
	}
	if c.ttl > 0 && c.clock.Since(s.PreparedAt) >= c.ttl {
		return usage.Dataset{}, false
	}
	return *s.Dataset, true
}

func (c *Cache) current() usage.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.Dataset == nil {
		return usage.Dataset{}
	}
	return *c.state.Dataset
}

// prepare runs the pipeline once for all concurrent callers. A caller whose
// context ends first gets whatever is cached at that moment; the run itself
// continues and installs its result.
func (c *Cache) prepare(ctx context.Context) usage.Dataset {
	ch := c.group.DoChan("prepare", func() (any, error) {
		return c.run(context.WithoutCancel(ctx)), nil
	})
	select {
	case res := <-ch:
		return res.Val.(usage.Dataset)
	case <-ctx.Done():
		return c.current()
	}
}

func (c *Cache) run(ctx context.Context) (ds usage.Dataset) {
	c.mu.Lock()
	c.state.FetchInFlight = true
	c.mu.Unlock()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while preparing data: %v", r)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.state.FetchInFlight = false
		c.state.PreparedAt = c.clock.Now()
		c.state.LastError = err
		if err != nil {
			c.logger.Error("Error fetching or processing sunburst data", "err", err)
			ds = usage.Dataset{}
		}
		installed := ds
		c.state.Dataset = &installed
	}()

	ds, err = c.load(ctx)
	return ds
}
