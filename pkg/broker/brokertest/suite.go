// Package brokertest is a behavioural test suite every broker.Client
// implementation must pass.
package brokertest

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/inferq/pkg/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Harness is a fresh, empty broker plus a way to move its clock.
type Harness struct {
	Client  broker.Client
	Advance func(time.Duration)
}

type payload struct {
	Data [][]float64 `json:"data"`
}

// Run executes the suite. newHarness is called once per subtest.
func Run(t *testing.T, newHarness func(t *testing.T) Harness) {
	t.Run("dequeue returns ids in enqueue order", func(t *testing.T) {
		c := newHarness(t).Client
		ctx := context.Background()

		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, c.Enqueue(ctx, "q", id))
		}
		n, err := c.QueueLength(ctx, "q")
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		var got []string
		for range 3 {
			id, ok, err := c.DequeueBlocking(ctx, "q", time.Second)
			require.NoError(t, err)
			require.True(t, ok)
			got = append(got, id)
		}
		assert.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("dequeue times out on an empty queue", func(t *testing.T) {
		c := newHarness(t).Client

		start := time.Now()
		id, ok, err := c.DequeueBlocking(context.Background(), "empty", time.Second)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, id)
		assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
	})

	t.Run("blocked dequeue wakes on enqueue", func(t *testing.T) {
		c := newHarness(t).Client
		ctx := context.Background()

		type popped struct {
			id string
			ok bool
		}
		done := make(chan popped, 1)
		go func() {
			id, ok, _ := c.DequeueBlocking(ctx, "q", 5*time.Second)
			done <- popped{id, ok}
		}()

		time.Sleep(50 * time.Millisecond)
		require.NoError(t, c.Enqueue(ctx, "q", "late"))

		select {
		case p := <-done:
			assert.True(t, p.ok)
			assert.Equal(t, "late", p.id)
		case <-time.After(3 * time.Second):
			t.Fatal("dequeue did not wake up")
		}
	})

	t.Run("dequeue returns quietly when context is cancelled", func(t *testing.T) {
		c := newHarness(t).Client
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, ok, err := c.DequeueBlocking(ctx, "q", time.Second)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set and get round trip JSON", func(t *testing.T) {
		c := newHarness(t).Client
		ctx := context.Background()

		in := payload{Data: [][]float64{{5.1, 3.5, 1.4, 0.2}}}
		require.NoError(t, c.Set(ctx, "job:1:data", in, time.Hour))

		var out payload
		found, err := c.Get(ctx, "job:1:data", &out)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, in, out)

		var missing payload
		found, err = c.Get(ctx, "job:2:data", &missing)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("get reports undecodable values", func(t *testing.T) {
		c := newHarness(t).Client
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "k", "a string", 0))
		var out payload
		_, err := c.Get(ctx, "k", &out)
		assert.Error(t, err)
	})

	t.Run("keys expire after their ttl", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		require.NoError(t, h.Client.Set(ctx, "job:1:status", "pending", 10*time.Second))
		ok, err := h.Client.Exists(ctx, "job:1:status")
		require.NoError(t, err)
		assert.True(t, ok)

		h.Advance(11 * time.Second)

		ok, err = h.Client.Exists(ctx, "job:1:status")
		require.NoError(t, err)
		assert.False(t, ok)

		var status string
		found, err := h.Client.Get(ctx, "job:1:status", &status)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ttl reports the remaining lifetime", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		require.NoError(t, h.Client.Set(ctx, "job:1:status", "pending", 10*time.Second))
		h.Advance(4 * time.Second)

		ttl, found, err := h.Client.TTL(ctx, "job:1:status")
		require.NoError(t, err)
		require.True(t, found)
		assert.InDelta(t, float64(6*time.Second), float64(ttl), float64(100*time.Millisecond))

		require.NoError(t, h.Client.Set(ctx, "forever", 1, 0))
		ttl, found, err = h.Client.TTL(ctx, "forever")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Zero(t, ttl)

		_, found, err = h.Client.TTL(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)

		h.Advance(7 * time.Second)
		_, found, err = h.Client.TTL(ctx, "job:1:status")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete removes a key", func(t *testing.T) {
		c := newHarness(t).Client
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "k", 1, 0))
		require.NoError(t, c.Delete(ctx, "k"))
		ok, err := c.Exists(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ping", func(t *testing.T) {
		assert.True(t, newHarness(t).Client.Ping(context.Background()))
	})
}
