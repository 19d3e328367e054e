package retry

import (
	"context"
	"errors"
	"time"
)

var ErrRetry = errors.New("retry")

// Backoff blocks until the next attempt is due.
//
// It returns ctx.Err() when the context is done before that.
type Backoff func(context.Context) error

// StaticBackoff waits for a fixed interval between attempts.
func StaticBackoff(interval time.Duration) Backoff {
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// Blocking calls f until it returns nil or an error other than ErrRetry.
//
// Backoff is awaited before every call, including the first one.
//
// # Returns
//
// - T: last return value of f
//
// - error: error returned by f, or by the backoff.
func Blocking[T any](ctx context.Context, b Backoff, f func() (T, error)) (T, error) {
	last := *new(T)
	for {
		if err := b(ctx); err != nil {
			return last, err
		}

		var err error
		last, err = f()
		if err == nil {
			return last, nil
		}
		if errors.Is(err, ErrRetry) {
			continue
		}
		return last, err
	}
}
