// Package card is the controller that owns one sunburst chart. It receives
// configuration, a render surface and "context changed" notifications from
// its host, and drives the cache and scheduler behind them.
package card

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"sunburst/pkg/cache"
	"sunburst/pkg/config"
	"sunburst/pkg/display"
	"sunburst/pkg/downloader"
	"sunburst/pkg/scheduler"
	"sunburst/pkg/usage"

	"github.com/coder/quartz"
)

// ErrNoData is returned by a render run when the pipeline produced nothing.
var ErrNoData = errors.New("no data available for chart update")

// Status is a point-in-time view of the card.
type Status struct {
	URL       string
	Created   bool
	Scheduler scheduler.Snapshot
	Cache     cache.State
}

// Card owns one chart.
// Mutable
type Card struct {
	dl     downloader.Downloader
	clock  quartz.Clock
	logger *slog.Logger
	layout display.Layout

	mu       sync.Mutex
	cfg      *config.Config
	url      string
	sink     display.Sink
	created  bool
	cache    *cache.Cache
	sched    *scheduler.Scheduler
	revision string
	seen     bool
}

// Option configures a Card.
type Option func(*Card)

// WithDownloader sets the downloader used for fetches.
func WithDownloader(dl downloader.Downloader) Option {
	return func(c *Card) {
		c.dl = dl
	}
}

// WithHTTPClient builds the default downloader around client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Card) {
		c.dl = downloader.NewDownloader(client)
	}
}

// WithClock sets the clock used for debouncing and cache expiry.
func WithClock(clk quartz.Clock) Option {
	return func(c *Card) {
		c.clock = clk
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Card) {
		c.logger = l
	}
}

// WithLayout overrides the layout handed to the sink.
func WithLayout(layout display.Layout) Option {
	return func(c *Card) {
		c.layout = layout
	}
}

// New creates an unconfigured card.
func New(opts ...Option) *Card {
	c := &Card{
		clock:  quartz.NewReal(),
		logger: slog.Default(),
		layout: display.DefaultLayout(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dl == nil {
		c.dl = downloader.NewDefaultDownloader()
	}
	return c
}

// SetConfig validates cfg and rebuilds the pipeline around a frozen copy.
// A missing json_url is a *config.Error. When a render surface is attached
// the initial render starts immediately.
func (c *Card) SetConfig(cfg *config.Config) error {
	if cfg == nil {
		cfg = &config.Config{}
	}
	frozen := cfg.Clone()
	frozen.ApplyDefaults()
	if err := frozen.Validate(); err != nil {
		return err
	}
	frozen.Freeze()

	pc, url, err := newPipeline(frozen, c.dl, c.clock, c.logger)
	if err != nil {
		return err
	}
	sched := scheduler.New(c.update,
		scheduler.WithDelay(frozen.Debounce.Std()),
		scheduler.WithClock(c.clock),
		scheduler.WithLogger(c.logger.With("url", url)),
	)

	c.mu.Lock()
	old := c.sched
	c.cfg = frozen
	c.url = url
	c.cache = pc
	c.sched = sched
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	c.logger.Debug("Card configured", "url", url, "debounce", frozen.Debounce)
	c.maybeStart()
	return nil
}

// Config returns the frozen config in use, or nil.
func (c *Card) Config() *config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Attach sets the render surface. A new surface gets a Create on its first
// render. The initial render starts once both config and surface exist;
// attaching after it ran schedules a refresh instead.
func (c *Card) Attach(sink display.Sink) {
	c.mu.Lock()
	c.sink = sink
	c.created = false
	sched := c.sched
	c.mu.Unlock()

	if !c.maybeStart() && sched != nil && sink != nil {
		sched.RequestRefresh()
	}
}

// SetContext is the "context changed" notification. Each new revision asks
// for a debounced refresh; repeating the last revision does nothing. It
// reports whether a refresh was requested.
func (c *Card) SetContext(rev string) bool {
	c.mu.Lock()
	if c.seen && rev == c.revision {
		c.mu.Unlock()
		return false
	}
	c.seen = true
	c.revision = rev
	sched := c.sched
	c.mu.Unlock()

	if sched == nil {
		return false
	}
	return sched.RequestRefresh()
}

// Invalidate drops the cached dataset; the next update fetches again.
func (c *Card) Invalidate() {
	c.mu.Lock()
	pc := c.cache
	c.mu.Unlock()
	if pc != nil {
		pc.Invalidate()
	}
}

// Wait blocks until no render is running.
func (c *Card) Wait() {
	c.mu.Lock()
	sched := c.sched
	c.mu.Unlock()
	if sched != nil {
		sched.Wait()
	}
}

// Close cancels pending refreshes and waits for the running one.
func (c *Card) Close() {
	c.mu.Lock()
	sched := c.sched
	c.mu.Unlock()
	if sched != nil {
		sched.Close()
	}
}

// Status returns a snapshot of the card.
func (c *Card) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{URL: c.url, Created: c.created}
	if c.sched != nil {
		st.Scheduler = c.sched.Snapshot()
	}
	if c.cache != nil {
		st.Cache = c.cache.Snapshot()
	}
	return st
}

func (c *Card) maybeStart() bool {
	c.mu.Lock()
	sched, sink := c.sched, c.sink
	c.mu.Unlock()
	if sched == nil || sink == nil {
		return false
	}
	return sched.Initial(c.initial)
}

// initial renders the first chart from fresh data.
func (c *Card) initial(ctx context.Context) error {
	c.mu.Lock()
	pc, url := c.cache, c.url
	c.mu.Unlock()

	ds := pc.Refresh(ctx)
	if ds.IsEmpty() {
		c.logger.Error("No data available for initial chart render", "url", url)
		return ErrNoData
	}
	return c.render(ds)
}

// update redraws from the cache, preparing only when needed.
func (c *Card) update(ctx context.Context) error {
	c.mu.Lock()
	pc := c.cache
	c.mu.Unlock()

	ds := pc.GetOrPrepare(ctx)
	if ds.IsEmpty() {
		return ErrNoData
	}
	return c.render(ds)
}

func (c *Card) render(ds usage.Dataset) error {
	c.mu.Lock()
	sink, created := c.sink, c.created
	c.created = true
	c.mu.Unlock()

	if sink == nil {
		return nil
	}
	if !created {
		return c.createOrReset(sink, ds)
	}
	return sink.Update(ds, c.layout)
}

func (c *Card) createOrReset(sink display.Sink, ds usage.Dataset) error {
	if err := sink.Create(ds, c.layout); err != nil {
		c.mu.Lock()
		if c.sink == sink {
			c.created = false
		}
		c.mu.Unlock()
		return err
	}
	return nil
}
