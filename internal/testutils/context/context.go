package context

import (
	"context"
	"testing"
	"time"
)

// WithTest wraps ctx with deadline of the test.
//
// The deadline is 1 second before test's deadline, to be able to clean-up resources.
func WithTest(ctx context.Context, t *testing.T) (context.Context, context.CancelFunc) {
	if deadline, ok := t.Deadline(); ok {
		return context.WithDeadline(ctx, deadline.Add(-time.Second))
	}
	return context.WithCancel(ctx)
}
