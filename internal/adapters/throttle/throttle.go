// Package throttle paces calls to rate-limited upstreams.
package throttle

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the pause the killboard asks for between calls.
const DefaultInterval = 1100 * time.Millisecond

// Clock sleeps on behalf of a Pacer.
type Clock interface {
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock sleeps on the wall clock.
type RealClock struct{}

// Sleep implements Clock.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer imposes a fixed pause after each call it is asked to settle.
// It keeps no shared state, so call sites running concurrently pause
// independently and never queue behind each other.
type Pacer struct {
	clock    Clock
	interval time.Duration
}

// Option configures a Pacer.
type Option func(*Pacer)

// WithClock replaces the wall clock, typically with a VirtualClock in tests.
func WithClock(c Clock) Option {
	return func(p *Pacer) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithInterval sets the pause length. Zero disables pacing.
func WithInterval(d time.Duration) Option {
	return func(p *Pacer) {
		if d >= 0 {
			p.interval = d
		}
	}
}

// NewPacer creates a Pacer with DefaultInterval on the wall clock.
func NewPacer(opts ...Option) *Pacer {
	p := &Pacer{clock: RealClock{}, interval: DefaultInterval}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the configured pause.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Settle pauses for the configured interval. A nil Pacer does nothing.
func (p *Pacer) Settle(ctx context.Context) error {
	if p == nil || p.interval == 0 {
		return nil
	}
	return p.clock.Sleep(ctx, p.interval)
}

// VirtualClock records requested sleeps and returns immediately.
type VirtualClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

// Sleep implements Clock without blocking.
func (c *VirtualClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err()
}

// Sleeps returns a copy of every requested sleep.
func (c *VirtualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// Elapsed returns the sum of requested sleeps.
func (c *VirtualClock) Elapsed() time.Duration {
	var total time.Duration
	for _, d := range c.Sleeps() {
		total += d
	}
	return total
}
