package jobx

import (
	"time"

	"github.com/Abraxas-365/inferq/pkg/logx"
)

// WorkerOptions configures workers and the pool that runs them.
type WorkerOptions struct {
	Concurrency     int
	DequeueTimeout  time.Duration
	PredictTimeout  time.Duration
	ErrorBackoff    time.Duration
	MaxErrorBackoff time.Duration
	ShutdownTimeout time.Duration
	Recorder        ResultRecorder
	Logger          *logx.Logger
}

func defaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Concurrency:     2,
		DequeueTimeout:  time.Second,
		PredictTimeout:  10 * time.Second,
		ErrorBackoff:    time.Second,
		MaxErrorBackoff: 10 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

type WorkerOption func(*WorkerOptions)

// WithConcurrency sets how many independent worker loops a Pool runs.
func WithConcurrency(n int) WorkerOption {
	return func(o *WorkerOptions) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithDequeueTimeout bounds each blocking pop, which is also how often a
// worker checks for shutdown.
func WithDequeueTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.DequeueTimeout = d
		}
	}
}

// WithPredictTimeout is handed to the predictor with every call.
func WithPredictTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		o.PredictTimeout = d
	}
}

// WithErrorBackoff sets the pause after a failed loop iteration. It doubles
// on consecutive failures up to max.
func WithErrorBackoff(base, max time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		o.ErrorBackoff = base
		o.MaxErrorBackoff = max
	}
}

func WithShutdownTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		o.ShutdownTimeout = d
	}
}

// WithRecorder archives every finished job.
func WithRecorder(r ResultRecorder) WorkerOption {
	return func(o *WorkerOptions) {
		o.Recorder = r
	}
}

func WithLogger(l *logx.Logger) WorkerOption {
	return func(o *WorkerOptions) {
		o.Logger = l
	}
}
