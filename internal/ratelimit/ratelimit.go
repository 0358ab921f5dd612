// Package ratelimit spaces outbound calls to a quota-limited source.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter blocks until the next call is allowed.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Interval allows one call per interval. The first call passes immediately;
// each later call waits until interval has elapsed since the previous one.
type Interval struct {
	interval time.Duration

	mu    sync.Mutex
	last  time.Time
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewInterval creates an Interval limiter. A non-positive interval never waits.
func NewInterval(interval time.Duration) *Interval {
	return &Interval{
		interval: interval,
		now:      time.Now,
		sleep:    sleepWithContext,
	}
}

// Wait blocks until the call is allowed or ctx is done.
// A cancelled wait does not consume the slot.
func (l *Interval) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.interval > 0 && !l.last.IsZero() {
		if wait := l.interval - l.now().Sub(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	l.last = l.now()
	return nil
}

// Interval returns the configured spacing.
func (l *Interval) Interval() time.Duration { return l.interval }

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
