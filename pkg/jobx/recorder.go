package jobx

import "context"

// ResultRecorder receives every job that reached a terminal state. Failures
// are logged by the worker and never change the job.
type ResultRecorder interface {
	Record(ctx context.Context, o Outcome) error
}

// RecorderFunc adapts a function to ResultRecorder.
type RecorderFunc func(ctx context.Context, o Outcome) error

func (f RecorderFunc) Record(ctx context.Context, o Outcome) error {
	return f(ctx, o)
}
