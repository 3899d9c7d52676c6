package asyncx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/inferq/pkg/asyncx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Await(t *testing.T) {
	fut := asyncx.Run(func() (int, error) { return 42, nil })

	v, err := fut.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = fut.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRun_RecoversPanic(t *testing.T) {
	fut := asyncx.Run(func() (int, error) { panic("model exploded") })

	_, err := fut.Await()
	var pe asyncx.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "model exploded", pe.Value)
}

func TestAllSettled(t *testing.T) {
	boom := errors.New("boom")
	res := asyncx.AllSettled(context.Background(),
		func(context.Context) (string, error) { return "ok", nil },
		func(context.Context) (string, error) { return "", boom },
	)

	require.Len(t, res, 2)
	assert.True(t, res[0].OK())
	assert.Equal(t, "ok", res[0].Value)
	assert.ErrorIs(t, res[1].Err, boom)
}

func TestWithTimeout(t *testing.T) {
	t.Run("finishes in time", func(t *testing.T) {
		v, err := asyncx.WithTimeout(context.Background(), time.Second, func(context.Context) (string, error) {
			return "done", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "done", v)
	})

	t.Run("ignores context and overruns", func(t *testing.T) {
		start := time.Now()
		_, err := asyncx.WithTimeout(context.Background(), 20*time.Millisecond, func(context.Context) (string, error) {
			time.Sleep(500 * time.Millisecond)
			return "late", nil
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 400*time.Millisecond)
	})
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, asyncx.Sleep(ctx, time.Hour))
	assert.True(t, asyncx.Sleep(context.Background(), time.Millisecond))
}

func TestBackoff(t *testing.T) {
	b := asyncx.Backoff{Base: time.Second, Max: 5 * time.Second}

	got := []time.Duration{b.Next(), b.Next(), b.Next(), b.Next(), b.Next()}
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second,
	}, got)

	b.Reset()
	assert.Equal(t, time.Second, b.Next())
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	v, err := asyncx.RetryWithBackoff(context.Background(), 3, time.Millisecond, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("not yet")
		}
		return calls, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	calls = 0
	_, err = asyncx.RetryWithBackoff(context.Background(), 2, time.Millisecond, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("never")
	})
	assert.EqualError(t, err, "never")
	assert.Equal(t, 2, calls)
}
