package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum interval between calls to an external service.
// With calls=1 and period=1s, no two calls start less than one second apart.
type Throttle struct {
	limiter *rate.Limiter
	period  time.Duration
	calls   int
}

// NewThrottle allows at most calls calls per period, spaced evenly.
// Non-positive arguments fall back to one call per second.
func NewThrottle(calls int, period time.Duration) *Throttle {
	if calls <= 0 {
		calls = 1
	}
	if period <= 0 {
		period = time.Second
	}
	interval := period / time.Duration(calls)
	return &Throttle{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		period:  period,
		calls:   calls,
	}
}

// Interval is the minimum spacing between two calls.
func (t *Throttle) Interval() time.Duration {
	return t.period / time.Duration(t.calls)
}

// Wait blocks until the next call may start or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Do waits for a slot and runs fn.
func Do[T any](ctx context.Context, t *Throttle, fn func(context.Context) (T, error)) (T, error) {
	if err := t.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return fn(ctx)
}
