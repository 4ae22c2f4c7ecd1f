// Package refresh runs the periodic display update of the clock.
//
// Two goroutines cooperate. The tick goroutine wakes once per interval,
// samples the clock, formats the content and hands it over; it never blocks
// and never touches the bus. The worker goroutine receives the content and
// runs the (slow, blocking) update. The handoff is a channel with room for a
// single pending update: if the worker is still busy when the next tick comes,
// the pending content is replaced with the fresher one, so a slow bus makes
// the display lag by at most one refresh and nothing queues up.
//
// The timer is rearmed for now+interval after each firing, not from a fixed
// epoch. Under load the refresh drifts instead of piling up missed ticks.
package refresh

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajanata/lcdclock/clockfmt"
)

// DefaultInterval is the refresh period when Config.Interval is zero.
const DefaultInterval = time.Second

// ErrStopped is returned by Start on a scheduler that was stopped. A stopped
// scheduler cannot be restarted.
var ErrStopped = errors.New("refresh: scheduler stopped")

// Timer is the timer primitive driving the tick. *time.Timer semantics.
type Timer interface {
	C() <-chan time.Time
	Reset(d time.Duration) bool
	Stop() bool
}

// UpdateFunc pushes one refresh to the display. It may block.
type UpdateFunc func(clockfmt.Content) error

// Status describes the outcome of one update.
type Status struct {
	At      time.Time
	Content clockfmt.Content
	Err     error
}

// Reporter is told about every update the worker runs, successful or not.
// Report is called from the worker goroutine.
type Reporter interface {
	Report(Status)
}

type State uint8

const (
	Idle State = iota
	Armed
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Stats counts scheduler events since Start.
type Stats struct {
	Ticks      uint64 // timer firings handled
	Updates    uint64 // updates run by the worker
	Failures   uint64 // updates that returned an error
	Superseded uint64 // pending contents replaced before the worker took them
}

type Config struct {
	Interval time.Duration
	Clock    clockfmt.Clock
	Update   UpdateFunc
	Reporter Reporter
	Logger   *slog.Logger
	// NewTimer creates the tick timer. Defaults to time.NewTimer.
	NewTimer func(d time.Duration) Timer
}

type Scheduler struct {
	interval time.Duration
	clock    clockfmt.Clock
	update   UpdateFunc
	reporter Reporter
	log      *slog.Logger
	newTimer func(time.Duration) Timer

	pending chan clockfmt.Content
	quit    chan struct{}
	wg      sync.WaitGroup

	mu    sync.Mutex
	state State

	ticks      atomic.Uint64
	updates    atomic.Uint64
	failures   atomic.Uint64
	superseded atomic.Uint64
}

// New creates an idle scheduler. Nothing runs until Start.
func New(cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clockfmt.System{}
	}
	if cfg.Update == nil {
		cfg.Update = func(clockfmt.Content) error { return nil }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.NewTimer == nil {
		cfg.NewTimer = newStdTimer
	}
	return &Scheduler{
		interval: cfg.Interval,
		clock:    cfg.Clock,
		update:   cfg.Update,
		reporter: cfg.Reporter,
		log:      cfg.Logger,
		newTimer: cfg.NewTimer,
		pending:  make(chan clockfmt.Content, 1),
		quit:     make(chan struct{}),
	}
}

// Start arms the timer for the first tick, one interval from now. Calling
// Start on an armed scheduler does nothing.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Armed:
		return nil
	case Stopped:
		return ErrStopped
	}
	s.state = Armed
	t := s.newTimer(s.interval)
	s.wg.Add(2)
	go s.work()
	go s.tick(t)
	s.log.Debug("refresh:armed", slog.Duration("interval", s.interval))
	return nil
}

// Stop cancels the timer and waits for an update in progress to return.
// After Stop returns no tick fires and no update runs, whatever the timer
// does. Pending content is discarded. Stop may be called more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != Stopped {
		s.state = Stopped
		close(s.quit)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:      s.ticks.Load(),
		Updates:    s.updates.Load(),
		Failures:   s.failures.Load(),
		Superseded: s.superseded.Load(),
	}
}

func (s *Scheduler) tick(t Timer) {
	defer s.wg.Done()
	defer t.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-t.C():
		}
		// a firing that raced with Stop is dropped
		select {
		case <-s.quit:
			return
		default:
		}

		s.ticks.Add(1)
		s.offer(clockfmt.Format(s.clock.Now()))
		t.Reset(s.interval)
	}
}

// offer puts content in the handoff slot, replacing content the worker has
// not picked up yet. The tick goroutine is the only sender, so once the slot
// is drained the send cannot block.
func (s *Scheduler) offer(content clockfmt.Content) {
	select {
	case <-s.pending:
		s.superseded.Add(1)
	default:
	}
	select {
	case s.pending <- content:
	default:
	}
}

func (s *Scheduler) work() {
	defer s.wg.Done()

	for {
		select {
		case <-s.quit:
			return
		case content := <-s.pending:
			// quit and pending may both be ready: Stop wins
			select {
			case <-s.quit:
				return
			default:
			}
			s.run(content)
		}
	}
}

func (s *Scheduler) run(content clockfmt.Content) {
	err := s.update(content)
	s.updates.Add(1)
	if err != nil {
		s.failures.Add(1)
		s.log.Error("refresh:update-failed",
			slog.String("time", content.Time),
			slog.Any("reason", err))
	}
	if s.reporter != nil {
		s.reporter.Report(Status{At: time.Now(), Content: content, Err: err})
	}
}

type stdTimer struct {
	t *time.Timer
}

func newStdTimer(d time.Duration) Timer {
	return stdTimer{t: time.NewTimer(d)}
}

func (t stdTimer) C() <-chan time.Time        { return t.t.C }
func (t stdTimer) Reset(d time.Duration) bool { return t.t.Reset(d) }
func (t stdTimer) Stop() bool                 { return t.t.Stop() }
