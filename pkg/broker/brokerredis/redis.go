package brokerredis

import (
	"context"
	"errors"
	"time"

	"github.com/Abraxas-365/inferq/pkg/broker"
	"github.com/Abraxas-365/inferq/pkg/config"
	"github.com/Abraxas-365/inferq/pkg/errx"
	"github.com/redis/go-redis/v9"
)

// Client implements broker.Client on a Redis list (LPUSH/BRPOP) and plain
// string keys with EX expiry.
type Client struct {
	rdb *redis.Client
}

var _ broker.Client = (*Client)(nil)

func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// NewFromConfig dials lazily; use Ping to check reachability.
func NewFromConfig(cfg config.RedisConfig) *Client {
	return New(redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}))
}

// Redis exposes the underlying client for callers that share the connection.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

func (c *Client) Ping(ctx context.Context) bool {
	return c.rdb.Ping(ctx).Err() == nil
}

func (c *Client) Enqueue(ctx context.Context, queue, id string) error {
	if err := c.rdb.LPush(ctx, queue, id).Err(); err != nil {
		return connErr("enqueue", err).WithDetail("queue", queue)
	}
	return nil
}

func (c *Client) DequeueBlocking(ctx context.Context, queue string, timeout time.Duration) (string, bool, error) {
	res, err := c.rdb.BRPop(ctx, timeout, queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return "", false, nil
		}
		return "", false, connErr("dequeue", err).WithDetail("queue", queue)
	}

	// res[0] is the list name, res[1] the popped value.
	return res[1], true, nil
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := broker.Encode(key, value)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return connErr("set", err).WithDetail("key", key)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, connErr("get", err).WithDetail("key", key)
	}
	if err := broker.Decode(key, raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := c.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, false, connErr("ttl", err).WithDetail("key", key)
	}
	// PTTL answers -1 for a key without expiry and -2 for a missing key.
	switch {
	case d == -1:
		return 0, true, nil
	case d <= 0:
		return 0, false, nil
	}
	return d, true, nil
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, connErr("exists", err).WithDetail("key", key)
	}
	return n > 0, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return connErr("delete", err).WithDetail("key", key)
	}
	return nil
}

func (c *Client) QueueLength(ctx context.Context, queue string) (int64, error) {
	n, err := c.rdb.LLen(ctx, queue).Result()
	if err != nil {
		return 0, connErr("queue_length", err).WithDetail("queue", queue)
	}
	return n, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func connErr(op string, err error) *errx.Error {
	if errors.Is(err, redis.ErrClosed) {
		return broker.Closed(op).WithCause(err)
	}
	return broker.Connection(op, err)
}
