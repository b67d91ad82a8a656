// Package ratelimit provides the fixed-delay cooldown gate placed after calls
// to providers with hard throughput ceilings.
package ratelimit

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Gate applies a fixed pause after each guarded call. It is not a token
// bucket: calls are serialized and always followed by the full delay.
type Gate struct {
	name  string
	delay time.Duration
	sleep Sleeper
}

// Option customizes a Gate.
type Option func(*Gate)

// WithSleeper replaces the real timer, typically with a recorder in tests.
func WithSleeper(s Sleeper) Option {
	return func(g *Gate) {
		if s != nil {
			g.sleep = s
		}
	}
}

// NewGate builds a gate named for the provider it protects.
func NewGate(name string, delay time.Duration, opts ...Option) *Gate {
	if delay < 0 {
		delay = 0
	}
	g := &Gate{name: name, delay: delay, sleep: SleepWithContext}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name identifies the provider the gate protects.
func (g *Gate) Name() string {
	if g == nil {
		return ""
	}
	return g.name
}

// Delay reports the configured pause.
func (g *Gate) Delay() time.Duration {
	if g == nil {
		return 0
	}
	return g.delay
}

// Pause blocks for the configured delay. A nil gate or zero delay returns
// immediately.
func (g *Gate) Pause(ctx context.Context) error {
	if g == nil || g.delay <= 0 {
		return nil
	}
	return g.sleep(ctx, g.delay)
}

// After runs fn and then pauses whether or not fn succeeded. fn's error wins
// over a cancelled pause.
func (g *Gate) After(ctx context.Context, fn func() error) error {
	err := fn()
	if pauseErr := g.Pause(ctx); pauseErr != nil && err == nil {
		return pauseErr
	}
	return err
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
