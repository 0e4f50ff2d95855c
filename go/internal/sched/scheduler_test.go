package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	l := NewLoop()
	go l.Run(ctx)
	return l
}

func TestLoop_RunsInPostOrder(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_PostFromLoopDoesNotBlock(t *testing.T) {
	l := startLoop(t)

	done := make(chan struct{})
	l.Post(func() {
		l.Post(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested post never ran")
	}
}

func TestLoop_SurvivesPanickingTask(t *testing.T) {
	l := startLoop(t)

	l.Post(func() { panic("boom") })
	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_DoHonoursContext(t *testing.T) {
	l := NewLoop() // never started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Do(ctx, func() {}), context.DeadlineExceeded)
}

func TestLoopScheduler_AfterFiresOnLoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewLoopScheduler(clock, startLoop(t))

	var fired atomic.Int32
	s.After(time.Second, func() { fired.Add(1) })

	clock.Advance(500 * time.Millisecond)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	clock.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestLoopScheduler_StoppedTimerNeverRuns(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewLoopScheduler(clock, startLoop(t))

	var fired atomic.Int32
	tm := s.After(time.Second, func() { fired.Add(1) })
	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())

	clock.Advance(2 * time.Second)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestLoopScheduler_EveryTicksUntilStopped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewLoopScheduler(clock, startLoop(t))

	var ticks atomic.Int32
	tm := s.Every(time.Second, func() { ticks.Add(1) })

	for i := 1; i <= 3; i++ {
		clock.Advance(time.Second)
		want := int32(i)
		require.Eventually(t, func() bool { return ticks.Load() == want }, time.Second, 5*time.Millisecond)
	}

	tm.Stop()
	clock.Advance(time.Second)
	assert.Never(t, func() bool { return ticks.Load() > 3 }, 50*time.Millisecond, 5*time.Millisecond)
}
