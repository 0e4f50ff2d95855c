// Package sched provides the single-threaded execution model of a session:
// a Loop that runs every handler to completion, and a Scheduler whose timer
// callbacks are delivered onto that loop.
package sched

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the timer. A stopped timer's callback never runs, even if
	// its clock already fired. Stop reports whether the timer was active.
	Stop() bool
}

// Scheduler schedules callbacks that run on the session loop.
type Scheduler interface {
	Now() time.Time
	// After runs fn once after d.
	After(d time.Duration, fn func()) Timer
	// Every runs fn every d until stopped.
	Every(d time.Duration, fn func()) Timer
	// Post runs fn on the loop as soon as possible. Safe from any goroutine.
	Post(fn func())
}

// LoopScheduler backs Scheduler with a clockwork clock and delivers
// callbacks through a Loop.
type LoopScheduler struct {
	clock clockwork.Clock
	loop  *Loop
}

// NewLoopScheduler creates a scheduler. Pass clockwork.NewRealClock() in
// production.
func NewLoopScheduler(clock clockwork.Clock, loop *Loop) *LoopScheduler {
	return &LoopScheduler{clock: clock, loop: loop}
}

func (s *LoopScheduler) Now() time.Time { return s.clock.Now() }

func (s *LoopScheduler) Post(fn func()) { s.loop.Post(fn) }

func (s *LoopScheduler) After(d time.Duration, fn func()) Timer {
	h := newHandle()
	t := s.clock.NewTimer(d)

	go func() {
		select {
		case <-t.Chan():
			s.loop.Post(func() {
				if h.fire(false) {
					fn()
				}
			})
		case <-h.done:
			stopAndDrainTimer(t)
		}
	}()
	return h
}

func (s *LoopScheduler) Every(d time.Duration, fn func()) Timer {
	h := newHandle()
	tk := s.clock.NewTicker(d)

	go func() {
		defer tk.Stop()
		for {
			select {
			case <-tk.Chan():
				s.loop.Post(func() {
					if h.fire(true) {
						fn()
					}
				})
			case <-h.done:
				return
			}
		}
	}()
	return h
}

// handle is shared by the clock goroutine and the loop. The stopped flag is
// checked on the loop right before the callback runs.
type handle struct {
	mu      sync.Mutex
	stopped bool
	once    sync.Once
	done    chan struct{}
}

func newHandle() *handle {
	return &handle{done: make(chan struct{})}
}

// fire reports whether the callback may run. One-shot handles retire on
// their first fire.
func (h *handle) fire(periodic bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	if !periodic {
		h.stopped = true
		h.once.Do(func() { close(h.done) })
	}
	return true
}

func (h *handle) Stop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.stopped = true
	h.once.Do(func() { close(h.done) })
	return true
}

// stopAndDrainTimer stops t and drains its channel if it already fired.
func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
