// Package scheduler paces render updates. Refresh requests are debounced:
// each request cancels the pending one and re-arms a timer, so only the last
// request of a burst runs. Runs are single-flight: a refresh that comes due
// while another run is active is dropped, not queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// DefaultDelay is the debounce quiet period.
const DefaultDelay = 300 * time.Millisecond

// ErrClosed is returned for requests made after Close.
var ErrClosed = errors.New("scheduler closed")

// RunFunc performs one render update.
type RunFunc func(ctx context.Context) error

// State is the dominant scheduler state.
type State int

const (
	// Idle: nothing armed, nothing running.
	Idle State = iota
	// Pending: a refresh timer is armed.
	Pending
	// Running: an update is executing. A timer may be armed at the same time;
	// when it fires before the run completes, that refresh is skipped.
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a point-in-time view of the scheduler.
type Snapshot struct {
	State    State
	Pending  bool
	Running  bool
	Rendered bool
	// Runs counts completed updates, initial render included.
	Runs int
	// Skipped counts refreshes dropped because an update was running.
	Skipped  int
	Failures int
}

// Scheduler coordinates the initial render and debounced refreshes.
// Mutable
type Scheduler struct {
	refresh RunFunc
	clock   quartz.Clock
	delay   time.Duration
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	idle     *sync.Cond
	timer    *quartz.Timer
	gen      uint64
	running  bool
	rendered bool
	closed   bool
	runs     int
	skipped  int
	failures int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDelay sets the debounce quiet period.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		s.delay = d
	}
}

// WithClock replaces the clock driving the debounce timer.
func WithClock(clk quartz.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clk
	}
}

// WithLogger sets the logger for skipped and failed updates.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// New creates a Scheduler that calls refresh for each debounced refresh.
func New(refresh RunFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		refresh: refresh,
		clock:   quartz.NewReal(),
		delay:   DefaultDelay,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.idle = sync.NewCond(&s.mu)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Initial starts fn as the first render, in the background. It returns
// false when the initial render already happened, an update is running or
// the scheduler is closed. Refreshes are accepted from this point on.
func (s *Scheduler) Initial(fn RunFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.rendered || s.running {
		return false
	}
	s.rendered = true
	s.running = true
	go s.execute(fn, "initial")
	return true
}

// RequestRefresh schedules a refresh after the quiet period, replacing any
// refresh still waiting. Requests before the initial render are ignored.
func (s *Scheduler) RequestRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.rendered {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() { s.fire(gen) }, "scheduler", "refresh")
	return true
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A newer request re-armed the timer, or Close ran, after this one was due.
	if s.closed || gen != s.gen {
		return
	}
	s.timer = nil
	if s.running {
		s.skipped++
		s.logger.Info("Update skipped: another update in progress")
		return
	}
	s.running = true
	go s.execute(s.refresh, "refresh")
}

func (s *Scheduler) execute(fn RunFunc, kind string) {
	err := s.invoke(fn, kind)
	if err != nil {
		s.logger.Error("Error during chart update", "kind", kind, "err", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.runs++
	if err != nil {
		s.failures++
	}
	s.idle.Broadcast()
}

func (s *Scheduler) invoke(fn RunFunc, kind string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during %s update: %v", kind, r)
		}
	}()
	return fn(s.ctx)
}

// Wait blocks until no update is running. A refresh that is still pending
// is not waited for.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.running {
		s.idle.Wait()
	}
}

// State returns the dominant state.
func (s *Scheduler) State() State {
	return s.Snapshot().State
}

// Snapshot returns the current flags and counters.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Pending:  s.timer != nil,
		Running:  s.running,
		Rendered: s.rendered,
		Runs:     s.runs,
		Skipped:  s.skipped,
		Failures: s.failures,
	}
	switch {
	case snap.Running:
		snap.State = Running
	case snap.Pending:
		snap.State = Pending
	default:
		snap.State = Idle
	}
	return snap
}

// Close cancels any pending refresh, cancels the context passed to runs and
// waits for the active run to return.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.Wait()
}
