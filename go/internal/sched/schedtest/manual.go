// Package schedtest provides a deterministic Scheduler that runs every
// callback on the caller's goroutine in virtual time.
package schedtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/partyroom/go/internal/sched"
)

// Manual is a virtual-time scheduler. Nothing runs until Advance or Flush is
// called; then due callbacks run in deadline order on the calling goroutine.
type Manual struct {
	clock *clockwork.FakeClock

	mu      sync.Mutex
	posted  []func()
	entries []*entry
	seq     int
}

type entry struct {
	at      time.Time
	period  time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (e *entry) Stop() bool {
	if e.stopped {
		return false
	}
	e.stopped = true
	return true
}

var _ sched.Scheduler = (*Manual)(nil)

// New returns a scheduler whose clock starts at start.
func New(start time.Time) *Manual {
	return &Manual{clock: clockwork.NewFakeClockAt(start)}
}

// Clock exposes the underlying fake clock.
func (m *Manual) Clock() *clockwork.FakeClock { return m.clock }

func (m *Manual) Now() time.Time { return m.clock.Now() }

func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.posted = append(m.posted, fn)
	m.mu.Unlock()
}

func (m *Manual) After(d time.Duration, fn func()) sched.Timer {
	return m.add(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) sched.Timer {
	return m.add(d, d, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) *entry {
	m.seq++
	e := &entry{at: m.clock.Now().Add(d), period: period, seq: m.seq, fn: fn}
	m.entries = append(m.entries, e)
	return e
}

// Flush runs posted closures until none are left.
func (m *Manual) Flush() {
	for {
		m.mu.Lock()
		q := m.posted
		m.posted = nil
		m.mu.Unlock()
		if len(q) == 0 {
			return
		}
		for _, fn := range q {
			fn()
		}
	}
}

// Do posts fn and flushes, so fn has run when Do returns. Like Flush, it
// must be called from the test goroutine.
func (m *Manual) Do(_ context.Context, fn func()) error {
	m.Post(fn)
	m.Flush()
	return nil
}

// Advance moves virtual time forward by d, running every timer that falls
// due on the way at its own deadline.
func (m *Manual) Advance(d time.Duration) {
	target := m.clock.Now().Add(d)
	m.Flush()
	for {
		e := m.next(target)
		if e == nil {
			break
		}
		if delta := e.at.Sub(m.clock.Now()); delta > 0 {
			m.clock.Advance(delta)
		}
		if e.period > 0 {
			e.at = e.at.Add(e.period)
		} else {
			e.stopped = true
		}
		e.fn()
		m.Flush()
	}
	if delta := target.Sub(m.clock.Now()); delta > 0 {
		m.clock.Advance(delta)
	}
	m.prune()
}

// Jump moves the clock without running anything, the way a suspended tab
// sees wall time pass while its timers are starved. Overdue timers run on the
// next Advance, once each.
func (m *Manual) Jump(d time.Duration) {
	m.clock.Advance(d)
	now := m.clock.Now()
	for _, e := range m.entries {
		if e.stopped || e.period == 0 || !e.at.Before(now) {
			continue
		}
		// a starved interval fires once, then resumes its cadence
		missed := now.Sub(e.at) / e.period
		e.at = e.at.Add(missed * e.period)
	}
}

// Pending is the number of live timers.
func (m *Manual) Pending() int {
	n := 0
	for _, e := range m.entries {
		if !e.stopped {
			n++
		}
	}
	return n
}

func (m *Manual) next(target time.Time) *entry {
	var due []*entry
	for _, e := range m.entries {
		if !e.stopped && !e.at.After(target) {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}

func (m *Manual) prune() {
	live := m.entries[:0]
	for _, e := range m.entries {
		if !e.stopped {
			live = append(live, e)
		}
	}
	m.entries = live
}
