// Package broker defines the storage primitives the job queue is built on:
// a blocking FIFO list of ids and expiring JSON values.
package broker

import (
	"context"
	"encoding/json"
	"time"
)

// Client is a connection to a shared broker. Implementations must be safe for
// concurrent use.
type Client interface {
	// Ping reports whether the broker answers. It never returns an error.
	Ping(ctx context.Context) bool

	// Enqueue pushes id onto the head of queue.
	Enqueue(ctx context.Context, queue, id string) error

	// DequeueBlocking pops from the tail of queue, waiting up to timeout for
	// an entry. ok is false when the wait timed out or ctx ended.
	DequeueBlocking(ctx context.Context, queue string, timeout time.Duration) (id string, ok bool, err error)

	// Set stores value as JSON under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Get decodes the JSON stored under key into dest. found is false when
	// the key is missing or expired.
	Get(ctx context.Context, key string, dest any) (found bool, err error)

	// TTL returns the lifetime left on key. found is false when the key is
	// missing or expired. A zero ttl on a found key means it never expires.
	TTL(ctx context.Context, key string) (ttl time.Duration, found bool, err error)

	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	QueueLength(ctx context.Context, queue string) (int64, error)
	Close() error
}

// Encode serializes a value the way every backend stores it.
func Encode(key string, value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, brokerErrors.NewWithCause(ErrMarshal, err).WithDetail("key", key)
	}
	return raw, nil
}

// Decode is the inverse of Encode.
func Decode(key string, raw []byte, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return brokerErrors.NewWithCause(ErrUnmarshal, err).WithDetail("key", key)
	}
	return nil
}
