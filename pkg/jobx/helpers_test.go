package jobx_test

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/inferq/pkg/broker"
	"github.com/Abraxas-365/inferq/pkg/broker/brokermemory"
	"github.com/Abraxas-365/inferq/pkg/jobx"
	"github.com/Abraxas-365/inferq/pkg/logx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
	"github.com/stretchr/testify/require"
)

const testQueue = "predict_queue"

var irisRow = predictor.Input{Data: [][]float64{{5.1, 3.5, 1.4, 0.2}}}

// fakePredictor returns whatever fn returns and counts calls.
type fakePredictor struct {
	fn     func(ctx context.Context, in predictor.Input) ([]predictor.Prediction, error)
	calls  atomic.Int32
	closed atomic.Bool
}

func (f *fakePredictor) Predict(ctx context.Context, in predictor.Input, _ time.Duration) ([]predictor.Prediction, error) {
	f.calls.Add(1)
	return f.fn(ctx, in)
}

func (f *fakePredictor) Metadata() predictor.Metadata {
	return predictor.Metadata{Name: "fake", Classes: predictor.IrisLabels}
}

func (f *fakePredictor) Close() error {
	f.closed.Store(true)
	return nil
}

func fixedPredictor(p predictor.Prediction) *fakePredictor {
	return &fakePredictor{fn: func(context.Context, predictor.Input) ([]predictor.Prediction, error) {
		return []predictor.Prediction{p}, nil
	}}
}

var setosa = predictor.Prediction{Prediction: 0, Label: "setosa", Probabilities: []float64{0.9, 0.07, 0.03}}

// flakyBroker fails every call while down is set, the way a dropped Redis
// connection does.
type flakyBroker struct {
	broker.Client
	down        atomic.Bool
	failEnqueue atomic.Bool
}

func (f *flakyBroker) err(op string) error {
	return broker.Connection(op, context.DeadlineExceeded)
}

func (f *flakyBroker) Ping(ctx context.Context) bool {
	return !f.down.Load() && f.Client.Ping(ctx)
}

func (f *flakyBroker) Enqueue(ctx context.Context, queue, id string) error {
	if f.down.Load() || f.failEnqueue.Load() {
		return f.err("enqueue")
	}
	return f.Client.Enqueue(ctx, queue, id)
}

func (f *flakyBroker) DequeueBlocking(ctx context.Context, queue string, timeout time.Duration) (string, bool, error) {
	if f.down.Load() {
		return "", false, f.err("dequeue")
	}
	return f.Client.DequeueBlocking(ctx, queue, timeout)
}

func (f *flakyBroker) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if f.down.Load() {
		return f.err("set")
	}
	return f.Client.Set(ctx, key, value, ttl)
}

func (f *flakyBroker) Get(ctx context.Context, key string, dest any) (bool, error) {
	if f.down.Load() {
		return false, f.err("get")
	}
	return f.Client.Get(ctx, key, dest)
}

func (f *flakyBroker) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	if f.down.Load() {
		return 0, false, f.err("ttl")
	}
	return f.Client.TTL(ctx, key)
}

func (f *flakyBroker) Exists(ctx context.Context, key string) (bool, error) {
	if f.down.Load() {
		return false, f.err("exists")
	}
	return f.Client.Exists(ctx, key)
}

func (f *flakyBroker) QueueLength(ctx context.Context, queue string) (int64, error) {
	if f.down.Load() {
		return 0, f.err("queue_length")
	}
	return f.Client.QueueLength(ctx, queue)
}

// recordingBroker logs the order of mutating calls.
type recordingBroker struct {
	broker.Client
	mu  sync.Mutex
	ops []string
	ttl map[string]time.Duration
}

func (r *recordingBroker) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	r.mu.Lock()
	r.ops = append(r.ops, "set "+key)
	r.ttl[key] = ttl
	r.mu.Unlock()
	return r.Client.Set(ctx, key, value, ttl)
}

func (r *recordingBroker) Enqueue(ctx context.Context, queue, id string) error {
	r.mu.Lock()
	r.ops = append(r.ops, "enqueue "+queue+" "+id)
	r.mu.Unlock()
	return r.Client.Enqueue(ctx, queue, id)
}

func quietLogger() *logx.Logger {
	return logx.NewLogger(&logx.Config{Level: logx.LevelOff, Output: &bytes.Buffer{}})
}

func newMemoryStore(t *testing.T) (*jobx.Store, *brokermemory.Client) {
	t.Helper()
	b := brokermemory.New()
	t.Cleanup(func() { _ = b.Close() })
	return jobx.NewStore(b, testQueue, time.Hour), b
}

// startWorker runs a single worker until the test ends.
func startWorker(t *testing.T, store *jobx.Store, p predictor.Predictor, opts ...jobx.WorkerOption) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	opts = append([]jobx.WorkerOption{
		jobx.WithLogger(quietLogger()),
		jobx.WithErrorBackoff(10*time.Millisecond, 50*time.Millisecond),
	}, opts...)
	w := jobx.NewWorker("test-worker", store, p, opts...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// waitTerminal polls until the job finishes.
func waitTerminal(t *testing.T, svc *jobx.Service, id string) *jobx.Snapshot {
	t.Helper()
	var snap *jobx.Snapshot
	require.Eventually(t, func() bool {
		s, err := svc.Poll(context.Background(), id)
		if err != nil {
			return false
		}
		snap = s
		return s.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}
