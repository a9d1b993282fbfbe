package countdown

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemainingDecomposition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	target := now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second + 999*time.Millisecond)

	assert.Equal(t, Parts{Days: 2, Hours: 3, Minutes: 4, Seconds: 5}, Remaining(target, now))
	assert.Equal(t, Parts{Hours: 6}, Remaining(now.Add(6*time.Hour), now))
	assert.Equal(t, Parts{Seconds: 59}, Remaining(now.Add(59*time.Second+500*time.Millisecond), now))
}

func TestRemainingNeverNegative(t *testing.T) {
	target := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, time.Millisecond, time.Second, time.Hour, 400 * 24 * time.Hour} {
		parts := Remaining(target, target.Add(offset))
		assert.True(t, parts.IsZero(), "offset %s", offset)
	}
}

func TestSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := Snapshot(now.Add(90*time.Second), now)
	assert.False(t, ev.Expired)
	assert.Equal(t, int64(90_000), ev.Remaining)
	assert.Equal(t, Parts{Minutes: 1, Seconds: 30}, ev.Parts)

	past := Snapshot(now.Add(-time.Minute), now)
	assert.True(t, past.Expired)
	assert.True(t, past.Parts.IsZero())
	assert.Zero(t, past.Remaining)
}

type manualTime struct {
	mu  sync.Mutex
	now time.Time
}

func (m *manualTime) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTime) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.once.Do(func() { close(m.stopped) }) }

func receive(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event channel closed early")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for countdown event")
	}
	return Event{}
}

func TestClockTicksThenExpiresOnce(t *testing.T) {
	clock := &manualTime{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	ticker := newManualTicker()
	c := New(clock.Now().Add(2*time.Second),
		WithNow(clock.Now),
		WithTicker(func(time.Duration) Ticker { return ticker }),
	)

	events := c.Start(context.Background())

	first := receive(t, events)
	assert.False(t, first.Expired)
	assert.Equal(t, Parts{Seconds: 2}, first.Parts)

	clock.Advance(time.Second)
	ticker.ch <- clock.Now()
	second := receive(t, events)
	assert.Equal(t, Parts{Seconds: 1}, second.Parts)
	assert.False(t, second.Expired)

	clock.Advance(time.Second)
	ticker.ch <- clock.Now()
	last := receive(t, events)
	assert.True(t, last.Expired)
	assert.True(t, last.Parts.IsZero())

	_, open := <-events
	assert.False(t, open, "channel closes after the expired event")
	<-ticker.stopped
	<-c.Done()
}

func TestClockStartedPastDeadlineExpiresImmediately(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ticker := newManualTicker()
	c := New(now.Add(-time.Hour),
		WithNow(func() time.Time { return now }),
		WithTicker(func(time.Duration) Ticker { return ticker }),
	)

	var expired int
	for ev := range c.Start(context.Background()) {
		if ev.Expired {
			expired++
		}
	}
	assert.Equal(t, 1, expired)
}

func TestClockStopsOnContextCancel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ticker := newManualTicker()
	c := New(now.Add(time.Hour),
		WithNow(func() time.Time { return now }),
		WithTicker(func(time.Duration) Ticker { return ticker }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	events := c.Start(ctx)
	receive(t, events)
	cancel()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("clock goroutine did not exit after cancel")
	}
	select {
	case <-ticker.stopped:
	default:
		t.Fatal("ticker was not stopped on teardown")
	}
}

func TestClockStopIsIdempotent(t *testing.T) {
	c := New(time.Now().Add(time.Hour), WithTicker(func(time.Duration) Ticker { return newManualTicker() }))
	c.Stop()
	c.Stop()
	_, open := <-c.Start(context.Background())
	assert.False(t, open, "start after stop yields a closed channel")

	running := New(time.Now().Add(time.Hour), WithTicker(func(time.Duration) Ticker { return newManualTicker() }))
	receive(t, running.Start(context.Background()))
	running.Stop()
	running.Stop()
	<-running.Done()
}
