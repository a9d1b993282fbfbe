// Package countdown decomposes the time left until a deadline and drives a
// once-per-second ticking view of it.
package countdown

import (
	"context"
	"sync"
	"time"
)

const (
	msPerDay    = 86_400_000
	msPerHour   = 3_600_000
	msPerMinute = 60_000
	msPerSecond = 1_000

	// DefaultInterval is the tick cadence of a running Clock.
	DefaultInterval = time.Second
)

// Parts is the remaining time split into whole units. Each unit is taken from
// the remainder of the previous one.
type Parts struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// IsZero reports whether every component is zero.
func (p Parts) IsZero() bool {
	return p == Parts{}
}

// Remaining returns max(0, target − now) split into parts. It never reports
// negative components.
func Remaining(target, now time.Time) Parts {
	ms := target.Sub(now).Milliseconds()
	if ms <= 0 {
		return Parts{}
	}
	days := ms / msPerDay
	ms %= msPerDay
	hours := ms / msPerHour
	ms %= msPerHour
	minutes := ms / msPerMinute
	ms %= msPerMinute
	return Parts{Days: days, Hours: hours, Minutes: minutes, Seconds: ms / msPerSecond}
}

// Event is one observation of a Clock. Exactly one event per Clock has
// Expired set; it is the last one delivered.
type Event struct {
	Parts
	Target    time.Time `json:"target"`
	At        time.Time `json:"at"`
	Remaining int64     `json:"remainingMs"`
	Expired   bool      `json:"expired"`
}

// Snapshot computes a single event without starting a clock.
func Snapshot(target, now time.Time) Event {
	remaining := target.Sub(now).Milliseconds()
	if remaining <= 0 {
		return Event{Target: target, At: now, Expired: true}
	}
	return Event{Parts: Remaining(target, now), Target: target, At: now, Remaining: remaining}
}

// Ticker abstracts time.Ticker so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Option configures a Clock.
type Option func(*Clock)

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// WithTicker overrides how the periodic ticker is created.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(c *Clock) { c.newTicker = newTicker }
}

// WithInterval overrides the tick cadence.
func WithInterval(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
		}
	}
}

// Clock publishes an Event immediately on Start and then on every tick until
// the deadline passes, after which it delivers one Expired event and stops.
// Cancelling the Start context or calling Stop tears the ticker down.
type Clock struct {
	target    time.Time
	now       func() time.Time
	newTicker func(time.Duration) Ticker
	interval  time.Duration

	once   sync.Once
	cancel context.CancelFunc
	events chan Event
	done   chan struct{}
}

func New(target time.Time, opts ...Option) *Clock {
	c := &Clock{
		target:   target,
		now:      time.Now,
		interval: DefaultInterval,
		newTicker: func(d time.Duration) Ticker {
			return realTicker{t: time.NewTicker(d)}
		},
		events: make(chan Event),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the deadline.
func (c *Clock) Target() time.Time {
	return c.target
}

// Start launches the ticking goroutine once and returns the event channel,
// which is closed when the clock stops for any reason.
func (c *Clock) Start(ctx context.Context) <-chan Event {
	c.once.Do(func() {
		ctx, c.cancel = context.WithCancel(ctx)
		go c.run(ctx)
	})
	return c.events
}

// Stop cancels the clock and waits for its goroutine to exit. Safe to call
// before Start and more than once.
func (c *Clock) Stop() {
	c.once.Do(func() {
		close(c.events)
		close(c.done)
	})
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

// Done is closed once the clock goroutine has exited.
func (c *Clock) Done() <-chan struct{} {
	return c.done
}

func (c *Clock) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	ticker := c.newTicker(c.interval)
	defer ticker.Stop()

	for {
		ev := Snapshot(c.target, c.now())
		select {
		case <-ctx.Done():
			return
		case c.events <- ev:
		}
		if ev.Expired {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
	}
}
