package jobx_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/inferq/pkg/broker/brokermemory"
	"github.com/Abraxas-365/inferq/pkg/broker/brokerredis"
	"github.com/Abraxas-365/inferq/pkg/errx"
	"github.com/Abraxas-365/inferq/pkg/jobx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
	"github.com/Abraxas-365/inferq/pkg/predictor/softmax"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_IrisEndToEndOnRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	b := brokerredis.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = b.Close() })

	model, err := softmax.New(softmax.Iris())
	require.NoError(t, err)

	store := jobx.NewStore(b, testQueue, 24*time.Hour)
	svc := jobx.NewService(store)
	startWorker(t, store, model)

	id, err := svc.Submit(context.Background(), irisRow)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap := waitTerminal(t, svc, id)
	require.Equal(t, jobx.StatusCompleted, snap.Status)
	require.NotNil(t, snap.Result)
	assert.Nil(t, snap.Error)
	assert.Equal(t, "setosa", snap.Result.Label)
	require.Len(t, snap.Result.Probabilities, 3)

	var sum float64
	for _, p := range snap.Result.Probabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-6)

	assert.Equal(t, 24*time.Hour, mr.TTL("job:"+id+":result"))
}

func TestWorker_MissingDataFailsJob(t *testing.T) {
	store, b := newMemoryStore(t)
	svc := jobx.NewService(store)
	p := fixedPredictor(setosa)
	ctx := context.Background()

	id, err := svc.Submit(ctx, irisRow)
	require.NoError(t, err)
	require.NoError(t, b.Delete(ctx, "job:"+id+":data"))

	startWorker(t, store, p)

	snap := waitTerminal(t, svc, id)
	assert.Equal(t, jobx.StatusFailed, snap.Status)
	require.NotNil(t, snap.Error)
	assert.Equal(t, jobx.MsgDataNotFound, *snap.Error)
	assert.Nil(t, snap.Result)
	assert.Zero(t, p.calls.Load())
}

func TestWorker_PredictorFailures(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(context.Context, predictor.Input) ([]predictor.Prediction, error)
		wantErr string
	}{
		{
			name: "predictor error",
			fn: func(context.Context, predictor.Input) ([]predictor.Prediction, error) {
				return nil, errors.New("model exploded")
			},
			wantErr: "model exploded",
		},
		{
			name: "predictor error without message",
			fn: func(context.Context, predictor.Input) ([]predictor.Prediction, error) {
				return nil, errors.New("")
			},
			wantErr: "Prediction failed",
		},
		{
			name: "empty results",
			fn: func(context.Context, predictor.Input) ([]predictor.Prediction, error) {
				return nil, nil
			},
			wantErr: jobx.MsgNoResults,
		},
		{
			name: "predictor panic",
			fn: func(context.Context, predictor.Input) ([]predictor.Prediction, error) {
				panic("nil weights")
			},
			wantErr: "predictor panic: nil weights",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newMemoryStore(t)
			svc := jobx.NewService(store)
			startWorker(t, store, &fakePredictor{fn: tt.fn})

			id, err := svc.Submit(context.Background(), irisRow)
			require.NoError(t, err)

			snap := waitTerminal(t, svc, id)
			assert.Equal(t, jobx.StatusFailed, snap.Status)
			require.NotNil(t, snap.Error)
			assert.Equal(t, tt.wantErr, *snap.Error)
			assert.Nil(t, snap.Result)
		})
	}
}

func TestWorker_FailureDoesNotAffectNextJob(t *testing.T) {
	store, _ := newMemoryStore(t)
	svc := jobx.NewService(store)
	ctx := context.Background()

	p := &fakePredictor{fn: func(_ context.Context, in predictor.Input) ([]predictor.Prediction, error) {
		if in.Data[0][0] < 0 {
			return nil, errors.New("negative measurement")
		}
		return []predictor.Prediction{setosa}, nil
	}}

	bad, err := svc.Submit(ctx, predictor.Input{Data: [][]float64{{-1, 0, 0, 0}}})
	require.NoError(t, err)
	good, err := svc.Submit(ctx, irisRow)
	require.NoError(t, err)

	startWorker(t, store, p)

	assert.Equal(t, jobx.StatusFailed, waitTerminal(t, svc, bad).Status)
	assert.Equal(t, jobx.StatusCompleted, waitTerminal(t, svc, good).Status)
}

func TestWorker_ProcessesInQueueOrder(t *testing.T) {
	store, _ := newMemoryStore(t)
	svc := jobx.NewService(store)
	ctx := context.Background()

	var (
		mu    sync.Mutex
		order []float64
		first string
	)
	p := &fakePredictor{}
	p.fn = func(ctx context.Context, in predictor.Input) ([]predictor.Prediction, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(order) == 1 {
			// The first job must be terminal before the second starts.
			snap, err := svc.Poll(ctx, first)
			if err != nil || !snap.Status.IsTerminal() {
				return nil, errors.New("previous job still running")
			}
		}
		order = append(order, in.Data[0][0])
		return []predictor.Prediction{setosa}, nil
	}

	a, err := svc.Submit(ctx, predictor.Input{Data: [][]float64{{1, 0, 0, 0}}})
	require.NoError(t, err)
	first = a
	b, err := svc.Submit(ctx, predictor.Input{Data: [][]float64{{2, 0, 0, 0}}})
	require.NoError(t, err)

	startWorker(t, store, p)

	assert.Equal(t, jobx.StatusCompleted, waitTerminal(t, svc, a).Status)
	assert.Equal(t, jobx.StatusCompleted, waitTerminal(t, svc, b).Status)
	mu.Lock()
	assert.Equal(t, []float64{1, 2}, order)
	mu.Unlock()
}

func TestWorker_SurvivesBrokerOutage(t *testing.T) {
	fb := &flakyBroker{Client: brokermemory.New()}
	store := jobx.NewStore(fb, testQueue, time.Hour)
	svc := jobx.NewService(store)
	ctx := context.Background()

	startWorker(t, store, fixedPredictor(setosa))

	fb.down.Store(true)
	time.Sleep(100 * time.Millisecond)

	health := svc.Health(ctx)
	assert.False(t, health.Healthy())
	assert.Equal(t, jobx.ComponentError, health.Components["broker"])

	_, err := svc.Submit(ctx, irisRow)
	assert.True(t, errx.HasCode(err, jobx.ErrSubmissionFailed))

	fb.down.Store(false)
	assert.True(t, svc.Health(ctx).Healthy())

	id, err := svc.Submit(ctx, irisRow)
	require.NoError(t, err)
	assert.Equal(t, jobx.StatusCompleted, waitTerminal(t, svc, id).Status)
}

func TestWorker_RecordsOutcomes(t *testing.T) {
	store, b := newMemoryStore(t)
	svc := jobx.NewService(store)
	ctx := context.Background()

	var (
		mu       sync.Mutex
		outcomes = map[string]jobx.Outcome{}
	)
	rec := jobx.RecorderFunc(func(_ context.Context, o jobx.Outcome) error {
		mu.Lock()
		defer mu.Unlock()
		outcomes[o.JobID] = o
		return errors.New("archive offline")
	})

	ok, err := svc.Submit(ctx, irisRow)
	require.NoError(t, err)
	missing, err := svc.Submit(ctx, irisRow)
	require.NoError(t, err)
	require.NoError(t, b.Delete(ctx, "job:"+missing+":data"))

	startWorker(t, store, fixedPredictor(setosa), jobx.WithRecorder(rec))

	assert.Equal(t, jobx.StatusCompleted, waitTerminal(t, svc, ok).Status)
	assert.Equal(t, jobx.StatusFailed, waitTerminal(t, svc, missing).Status)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(outcomes) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, jobx.StatusCompleted, outcomes[ok].Status)
	assert.Equal(t, &setosa, outcomes[ok].Result)
	assert.Equal(t, "test-worker", outcomes[ok].Worker)
	assert.Equal(t, jobx.StatusFailed, outcomes[missing].Status)
	assert.Equal(t, jobx.MsgDataNotFound, *outcomes[missing].Error)
	assert.Nil(t, outcomes[missing].Input)
}

func TestWorker_RedeliveredFinishedJobIsSkipped(t *testing.T) {
	store, b := newMemoryStore(t)
	svc := jobx.NewService(store)
	p := fixedPredictor(setosa)
	startWorker(t, store, p)
	ctx := context.Background()

	done, err := svc.Submit(ctx, irisRow)
	require.NoError(t, err)
	first := waitTerminal(t, svc, done)
	require.Equal(t, jobx.StatusCompleted, first.Status)

	require.NoError(t, b.Enqueue(ctx, testQueue, done))
	next, err := svc.Submit(ctx, irisRow)
	require.NoError(t, err)
	assert.Equal(t, jobx.StatusCompleted, waitTerminal(t, svc, next).Status)

	assert.EqualValues(t, 2, p.calls.Load())
	again, err := svc.Poll(ctx, done)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestWorker_TerminalPollIsStable(t *testing.T) {
	store, _ := newMemoryStore(t)
	svc := jobx.NewService(store)
	startWorker(t, store, fixedPredictor(setosa))

	id, err := svc.Submit(context.Background(), irisRow)
	require.NoError(t, err)
	first := waitTerminal(t, svc, id)

	for range 5 {
		again, err := svc.Poll(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPool_RunsWorkersAndReleasesPredictor(t *testing.T) {
	store, _ := newMemoryStore(t)
	svc := jobx.NewService(store)
	p := fixedPredictor(setosa)

	pool := jobx.NewPool(store, p,
		jobx.WithConcurrency(3),
		jobx.WithLogger(quietLogger()),
		jobx.WithShutdownTimeout(5*time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- pool.Start(ctx) }()

	ids := make([]string, 10)
	for i := range ids {
		id, err := svc.Submit(context.Background(), irisRow)
		require.NoError(t, err)
		ids[i] = id
	}
	for _, id := range ids {
		assert.Equal(t, jobx.StatusCompleted, waitTerminal(t, svc, id).Status)
	}
	assert.EqualValues(t, 10, p.calls.Load())

	// Every job finished, so the pool is running by now.
	assert.True(t, errx.HasCode(pool.Start(ctx), jobx.ErrAlreadyRunning))

	cancel()
	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop")
	}
	assert.True(t, p.closed.Load())
}
