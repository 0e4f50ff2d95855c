package sched

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Loop runs posted closures one at a time on a single goroutine. Everything
// that touches session state runs on the loop, so handlers never interleave.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	done  chan struct{}
}

// NewLoop creates an idle loop. Call Run to start servicing it.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues fn to run on the loop. It never blocks and is safe to call from
// any goroutine, including the loop itself.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run services the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	log.Debug().Msg("event loop started")
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("event loop stopped")
			return
		case <-l.wake:
			for _, fn := range l.drain() {
				l.run(fn)
			}
		}
	}
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.queue
	l.queue = nil
	return q
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered panic in loop task")
		}
	}()
	fn()
}
