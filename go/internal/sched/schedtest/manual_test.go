package schedtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestManual_RunsTimersInDeadlineOrder(t *testing.T) {
	m := New(epoch)
	var got []string
	m.After(2*time.Second, func() { got = append(got, "b") })
	m.After(time.Second, func() { got = append(got, "a") })
	m.After(2*time.Second, func() { got = append(got, "c") })

	m.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, epoch.Add(3*time.Second), m.Now())
}

func TestManual_CallbackSeesItsOwnDeadline(t *testing.T) {
	m := New(epoch)
	var at time.Time
	m.After(1500*time.Millisecond, func() { at = m.Now() })
	m.Advance(5 * time.Second)
	assert.Equal(t, epoch.Add(1500*time.Millisecond), at)
}

func TestManual_EveryAndStop(t *testing.T) {
	m := New(epoch)
	n := 0
	tm := m.Every(time.Second, func() { n++ })
	m.Advance(3 * time.Second)
	assert.Equal(t, 3, n)

	assert.True(t, tm.Stop())
	m.Advance(3 * time.Second)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_TimersScheduledFromCallbacks(t *testing.T) {
	m := New(epoch)
	var got []time.Duration
	m.After(time.Second, func() {
		got = append(got, m.Now().Sub(epoch))
		m.After(time.Second, func() { got = append(got, m.Now().Sub(epoch)) })
	})
	m.Advance(5 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, got)
}

func TestManual_JumpStarvesInterval(t *testing.T) {
	m := New(epoch)
	n := 0
	m.Every(time.Second, func() { n++ })

	m.Jump(10 * time.Second)
	assert.Equal(t, 0, n)

	m.Advance(0)
	assert.Equal(t, 1, n)
}

func TestManual_FlushRunsPosted(t *testing.T) {
	m := New(epoch)
	var got []int
	m.Post(func() {
		got = append(got, 1)
		m.Post(func() { got = append(got, 2) })
	})
	m.Flush()
	assert.Equal(t, []int{1, 2}, got)
}
