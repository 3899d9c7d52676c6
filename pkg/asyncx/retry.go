package asyncx

import (
	"context"
	"time"
)

// Backoff yields exponentially growing delays starting at Base and capped at
// Max. The zero value never waits. Not safe for concurrent use.
type Backoff struct {
	Base time.Duration
	Max  time.Duration

	next time.Duration
}

// Next returns the delay to wait now and doubles the following one.
func (b *Backoff) Next() time.Duration {
	if b.next == 0 {
		b.next = b.Base
	}
	d := b.next
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	b.next = d * 2
	return d
}

// Reset returns the backoff to Base.
func (b *Backoff) Reset() {
	b.next = 0
}

// RetryWithBackoff calls fn up to attempts times, doubling the wait between
// attempts from initialDelay. It returns the last error when every attempt
// fails, or ctx.Err() if ctx ends first.
func RetryWithBackoff[T any](
	ctx context.Context,
	attempts int,
	initialDelay time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	var (
		zero T
		err  error
		val  T
	)
	b := Backoff{Base: initialDelay}

	for i := range attempts {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		val, err = fn(ctx)
		if err == nil {
			return val, nil
		}

		if i < attempts-1 && !Sleep(ctx, b.Next()) {
			return zero, ctx.Err()
		}
	}
	return zero, err
}
