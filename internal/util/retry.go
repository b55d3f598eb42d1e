package util

import (
	"context"
	"errors"
	"time"
)

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// RetryErrWithContext calls fn up to maxTries times until it returns nil error,
// or until ctx is done. If maxTries <= 0, it defaults to 1.
func RetryErrWithContext(ctx context.Context, maxTries int, fn func(context.Context) error) error {
	_, err := RetryWithBackoff(ctx, maxTries, 0, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RetryWithContext calls fn up to maxTries times until it returns nil error,
// or until ctx is done. If maxTries <= 0, it defaults to 1.
// Returns ctx.Err() if the context is canceled, otherwise returns the last error.
func RetryWithContext[T any](ctx context.Context, maxTries int, fn func(context.Context) (T, error)) (T, error) {
	return RetryWithBackoff(ctx, maxTries, 0, fn)
}

// RetryWithBackoff behaves like RetryWithContext but sleeps between attempts.
// The n-th pause lasts n*delay. A context error returned by fn is never retried.
func RetryWithBackoff[T any](
	ctx context.Context,
	maxTries int,
	delay time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if isContextErr(err) {
			return zero, err
		}
		lastErr = err

		if delay > 0 && i < maxTries-1 {
			timer := time.NewTimer(time.Duration(i+1) * delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return zero, lastErr
}
