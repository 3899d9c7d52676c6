package brokermemory

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/inferq/pkg/broker"
)

type item struct {
	raw     []byte
	expires time.Time
}

// Client is an in-process broker. It shares nothing across processes, so it
// is only useful when the API and the workers run in one binary, and in
// tests.
type Client struct {
	mu      sync.Mutex
	values  map[string]item
	lists   map[string][]string
	waiters map[string]chan struct{}
	closed  bool
	now     func() time.Time
}

var _ broker.Client = (*Client)(nil)

type Option func(*Client)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(opts ...Option) *Client {
	c := &Client{
		values:  make(map[string]item),
		lists:   make(map[string][]string),
		waiters: make(map[string]chan struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Ping(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *Client) Enqueue(ctx context.Context, queue, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return broker.Closed("enqueue")
	}

	// Lists are stored oldest first, so the head is the end of the slice.
	c.lists[queue] = append(c.lists[queue], id)
	if ch, ok := c.waiters[queue]; ok {
		close(ch)
		delete(c.waiters, queue)
	}
	return nil
}

func (c *Client) DequeueBlocking(ctx context.Context, queue string, timeout time.Duration) (string, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return "", false, broker.Closed("dequeue")
		}
		if l := c.lists[queue]; len(l) > 0 {
			id := l[0]
			c.lists[queue] = l[1:]
			c.mu.Unlock()
			return id, true, nil
		}
		wake, ok := c.waiters[queue]
		if !ok {
			wake = make(chan struct{})
			c.waiters[queue] = wake
		}
		c.mu.Unlock()

		select {
		case <-wake:
		case <-timer.C:
			return "", false, nil
		case <-ctx.Done():
			return "", false, nil
		}
	}
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := broker.Encode(key, value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return broker.Closed("set")
	}
	it := item{raw: raw}
	if ttl > 0 {
		it.expires = c.now().Add(ttl)
	}
	c.values[key] = it
	return nil
}

func (c *Client) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, broker.Closed("get")
	}
	it, ok := c.lookup(key)
	c.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := broker.Decode(key, it.raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, false, broker.Closed("ttl")
	}
	it, ok := c.lookup(key)
	if !ok {
		return 0, false, nil
	}
	if it.expires.IsZero() {
		return 0, true, nil
	}
	return it.expires.Sub(c.now()), true, nil
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, broker.Closed("exists")
	}
	_, ok := c.lookup(key)
	return ok, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return broker.Closed("delete")
	}
	delete(c.values, key)
	return nil
}

func (c *Client) QueueLength(ctx context.Context, queue string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, broker.Closed("queue_length")
	}
	return int64(len(c.lists[queue])), nil
}

// Close wakes every blocked dequeue. Further calls fail with broker.ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	for q, ch := range c.waiters {
		close(ch)
		delete(c.waiters, q)
	}
	return nil
}

// lookup returns the live item for key, dropping it when expired. Callers
// hold c.mu.
func (c *Client) lookup(key string) (item, bool) {
	it, ok := c.values[key]
	if !ok {
		return item{}, false
	}
	if !it.expires.IsZero() && !c.now().Before(it.expires) {
		delete(c.values, key)
		return item{}, false
	}
	return it, true
}
