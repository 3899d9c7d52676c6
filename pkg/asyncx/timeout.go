package asyncx

import (
	"context"
	"time"
)

// WithTimeout runs fn with a deadline of d and returns
// context.DeadlineExceeded as soon as the deadline passes, even if fn
// ignores its context. A non-positive d means no deadline.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return Run(func() (T, error) { return fn(ctx) }).Await()
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	fut := Run(func() (T, error) { return fn(ctx) })
	select {
	case o := <-fut.wait():
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Sleep waits for d or until ctx is done. It reports false when ctx ended
// the wait.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
