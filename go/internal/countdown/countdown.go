// Package countdown derives a locally ticking remaining-seconds value from an
// absolute deadline. Every tick recomputes from the wall clock, so throttled
// or suspended timers never make the display drift.
package countdown

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/partyroom/go/internal/sched"
)

// TickInterval is the display refresh rate.
const TickInterval = time.Second

// Remaining returns the whole seconds left until end, never negative.
func Remaining(end, now time.Time) int {
	if end.IsZero() {
		return 0
	}
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Countdown owns the single interval of one timing concern. Starting it again
// always cancels the previous interval first.
type Countdown struct {
	concern  string
	sched    sched.Scheduler
	onChange func(remaining int)
	onExpire func()

	end       time.Time
	remaining int
	ticker    sched.Timer
}

// Option configures a Countdown.
type Option func(*Countdown)

// OnChange is called with every recomputed value, including the first one.
func OnChange(fn func(remaining int)) Option {
	return func(c *Countdown) { c.onChange = fn }
}

// OnExpire is called once when the value reaches zero.
func OnExpire(fn func()) Option {
	return func(c *Countdown) { c.onExpire = fn }
}

// New creates a stopped countdown for concern.
func New(concern string, s sched.Scheduler, opts ...Option) *Countdown {
	c := &Countdown{concern: concern, sched: s}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartUntil runs the countdown towards an absolute deadline.
func (c *Countdown) StartUntil(end time.Time) {
	c.stopTicker()
	c.end = end

	log.Debug().
		Str("concern", c.concern).
		Time("end", end).
		Msg("countdown started")

	// recompute immediately so the first second is never blank
	if !c.tick() {
		return
	}
	c.ticker = c.sched.Every(TickInterval, func() { c.tick() })
}

// StartFor runs the countdown for d from now.
func (c *Countdown) StartFor(d time.Duration) {
	c.StartUntil(c.sched.Now().Add(d))
}

// Reset moves a running deadline to d from now, restarting the interval so
// the new value gets full seconds. It is a no-op when the countdown is stopped.
func (c *Countdown) Reset(d time.Duration) {
	if c.ticker == nil {
		return
	}
	c.StartUntil(c.sched.Now().Add(d))
}

// Cancel stops the interval and keeps the last displayed value.
func (c *Countdown) Cancel() {
	if c.stopTicker() {
		log.Debug().Str("concern", c.concern).Msg("countdown cancelled")
	}
}

// Clear stops the interval and zeroes the value.
func (c *Countdown) Clear() {
	c.stopTicker()
	c.end = time.Time{}
	c.set(0)
}

// Remaining is the last computed value.
func (c *Countdown) Remaining() int { return c.remaining }

// Running reports whether an interval is active.
func (c *Countdown) Running() bool { return c.ticker != nil }

// Deadline is the absolute end the countdown is driven by.
func (c *Countdown) Deadline() time.Time { return c.end }

// tick recomputes and reports whether the countdown is still running.
func (c *Countdown) tick() bool {
	c.set(Remaining(c.end, c.sched.Now()))
	if c.remaining > 0 {
		return true
	}

	c.stopTicker()
	log.Debug().Str("concern", c.concern).Msg("countdown expired")
	if c.onExpire != nil {
		c.onExpire()
	}
	return false
}

func (c *Countdown) set(v int) {
	c.remaining = v
	if c.onChange != nil {
		c.onChange(v)
	}
}

func (c *Countdown) stopTicker() bool {
	if c.ticker == nil {
		return false
	}
	c.ticker.Stop()
	c.ticker = nil
	return true
}
