// Package toast is the single-slot, auto-expiring feedback channel.
package toast

import (
	"sync"
	"time"

	"vibeclient/internal/notify"
	"vibeclient/internal/observability"
)

// Kind classifies a toast.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// DefaultDuration is how long a toast stays visible when none is configured.
const DefaultDuration = 3 * time.Second

// State is the one toast that can exist at a time.
type State struct {
	Message string
	Kind    Kind
	Visible bool
}

// Channel holds the current toast. Showing a new toast replaces the previous
// one immediately; a replaced toast's timer never hides its successor.
type Channel struct {
	mu       sync.Mutex
	state    State
	duration time.Duration
	gen      uint64
	timer    *time.Timer
	subs     notify.Fanout[State]
}

// NewChannel creates a channel whose toasts hide after d.
func NewChannel(d time.Duration) *Channel {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Channel{state: State{Kind: Info}, duration: d}
}

// Show displays message and schedules it to hide.
func (c *Channel) Show(message string, kind Kind) {
	if kind == "" {
		kind = Info
	}

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.state = State{Message: message, Kind: kind, Visible: true}
	c.timer = time.AfterFunc(c.duration, func() { c.expire(gen) })
	c.subs.Enqueue(c.state)
	c.mu.Unlock()

	observability.ToastsShown.WithLabelValues(string(kind)).Inc()
	c.subs.Flush()
}

// Hide hides the current toast, keeping its text.
func (c *Channel) Hide() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	c.state.Visible = false
	c.subs.Enqueue(c.state)
	c.mu.Unlock()

	c.subs.Flush()
}

// Current returns the toast state.
func (c *Channel) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive the state after every change, in order.
// The returned func unsubscribes.
func (c *Channel) Subscribe(fn func(State)) func() {
	return c.subs.Subscribe(fn)
}

// Close stops any pending expiry.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.state.Visible {
		c.mu.Unlock()
		return
	}
	c.state.Visible = false
	c.timer = nil
	c.subs.Enqueue(c.state)
	c.mu.Unlock()

	c.subs.Flush()
}
