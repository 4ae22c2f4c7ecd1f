// Package refreshtest provides a hand-driven timer for testing code built on
// the refresh scheduler.
package refreshtest

import (
	"sync"
	"time"
)

// Timer is a fake timer that only fires when told to.
type Timer struct {
	c      chan time.Time
	resets chan time.Duration

	mu      sync.Mutex
	period  time.Duration
	stopped bool
}

// NewTimer returns an armed fake timer. d is only recorded.
func NewTimer(d time.Duration) *Timer {
	return &Timer{
		c:      make(chan time.Time, 1),
		resets: make(chan time.Duration, 64),
		period: d,
	}
}

func (t *Timer) C() <-chan time.Time { return t.c }

func (t *Timer) Reset(d time.Duration) bool {
	t.mu.Lock()
	active := !t.stopped
	t.stopped = false
	t.period = d
	t.mu.Unlock()
	select {
	case t.resets <- d:
	default:
	}
	return active
}

func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := !t.stopped
	t.stopped = true
	return active
}

// Fire delivers a tick. It never blocks: it reports false when the previous
// tick has not been received yet. Firing a stopped timer still delivers, like
// a timer primitive advanced from outside.
func (t *Timer) Fire(at time.Time) bool {
	select {
	case t.c <- at:
		return true
	default:
		return false
	}
}

// WaitReset waits for the next Reset call and returns its duration. ok is
// false when none came within timeout.
func (t *Timer) WaitReset(timeout time.Duration) (d time.Duration, ok bool) {
	select {
	case d = <-t.resets:
		return d, true
	case <-time.After(timeout):
		return 0, false
	}
}

// Stopped reports whether Stop was called since the last Reset.
func (t *Timer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Period returns the duration the timer was last armed with.
func (t *Timer) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

// Factory records every timer it creates.
type Factory struct {
	mu     sync.Mutex
	timers []*Timer
}

func (f *Factory) NewTimer(d time.Duration) *Timer {
	t := NewTimer(d)
	f.mu.Lock()
	f.timers = append(f.timers, t)
	f.mu.Unlock()
	return t
}

// Last returns the most recently created timer, or nil.
func (f *Factory) Last() *Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.timers) == 0 {
		return nil
	}
	return f.timers[len(f.timers)-1]
}

// Count returns the number of timers created.
func (f *Factory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}
