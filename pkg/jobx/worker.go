package jobx

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/inferq/pkg/asyncx"
	"github.com/Abraxas-365/inferq/pkg/broker"
	"github.com/Abraxas-365/inferq/pkg/errx"
	"github.com/Abraxas-365/inferq/pkg/logx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
	"github.com/Abraxas-365/inferq/pkg/ptrx"
)

// Worker consumes the queue one job at a time.
type Worker struct {
	name      string
	store     *Store
	predictor predictor.Predictor
	opts      WorkerOptions
	log       *logx.Logger
}

func NewWorker(name string, store *Store, p predictor.Predictor, options ...WorkerOption) *Worker {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return newWorker(name, store, p, opts)
}

func newWorker(name string, store *Store, p predictor.Predictor, opts WorkerOptions) *Worker {
	base := opts.Logger
	if base == nil {
		base = logx.Default()
	}
	return &Worker{
		name:      name,
		store:     store,
		predictor: p,
		opts:      opts,
		log:       base.With(logx.Fields{"worker": name, "queue": store.Queue()}),
	}
}

// Run loops until ctx is cancelled. Broker outages and other iteration
// failures are logged and retried after a capped backoff; they never end
// the loop. A job already popped is finished even if ctx ends meanwhile.
func (w *Worker) Run(ctx context.Context) {
	backoff := asyncx.Backoff{Base: w.opts.ErrorBackoff, Max: w.opts.MaxErrorBackoff}
	w.log.Info("worker started")

	for ctx.Err() == nil {
		if err := w.iterate(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			delay := backoff.Next()
			w.log.WithError(err).WithField("retry_in", delay.String()).Warn("worker iteration failed")
			if !asyncx.Sleep(ctx, delay) {
				break
			}
			continue
		}
		backoff.Reset()
	}

	w.log.Info("worker stopped")
}

func (w *Worker) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	id, ok, err := w.store.Dequeue(ctx, w.opts.DequeueTimeout)
	if err != nil || !ok {
		return err
	}
	return w.ProcessJob(context.WithoutCancel(ctx), id)
}

// ProcessJob drives one dequeued job to a terminal state. Problems with the
// job itself are recorded on the job; only broker failures are returned.
func (w *Worker) ProcessJob(ctx context.Context, id string) error {
	start := time.Now()
	log := w.log.With(logx.Fields{"job_id": id})

	if err := w.store.MarkProcessing(ctx, id); err != nil {
		if stale(err) {
			log.WithError(err).Warn("skipping expired or finished job")
			return nil
		}
		if broker.IsUnavailable(err) {
			return err
		}
		log.WithError(err).Warn("could not mark job processing")
	}

	in, found, err := w.store.GetInput(ctx, id)
	if err != nil {
		if broker.IsUnavailable(err) {
			return err
		}
		return w.fail(ctx, id, nil, jobxErrors.NewWithMessage(ErrDataMissing, err.Error()), start)
	}
	if !found {
		return w.fail(ctx, id, nil, jobxErrors.New(ErrDataMissing), start)
	}

	results, err := w.predict(ctx, *in)
	if err != nil {
		reason := jobxErrors.NewWithCause(ErrPredictionFailed, err)
		if msg := err.Error(); msg != "" {
			reason = jobxErrors.NewWithMessage(ErrPredictionFailed, msg).WithCause(err)
		}
		return w.fail(ctx, id, in, reason, start)
	}
	if len(results) == 0 {
		return w.fail(ctx, id, in, jobxErrors.NewWithMessage(ErrPredictionFailed, MsgNoResults), start)
	}

	if err := w.store.CompleteJob(ctx, id, results[0]); err != nil {
		if stale(err) {
			log.WithError(err).Warn("job expired before its result was stored")
			return nil
		}
		return err
	}
	log.WithFields(logx.Fields{
		"label":    results[0].Label,
		"duration": time.Since(start).String(),
	}).Info("job completed")

	w.record(ctx, Outcome{
		JobID:  id,
		Status: StatusCompleted,
		Input:  in,
		Result: &results[0],
	}, start)
	return nil
}

func (w *Worker) predict(ctx context.Context, in predictor.Input) (out []predictor.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panic: %v", r)
		}
	}()
	return w.predictor.Predict(ctx, in, w.opts.PredictTimeout)
}

// fail records reason.Message as the job's error text.
func (w *Worker) fail(ctx context.Context, id string, in *predictor.Input, reason *errx.Error, start time.Time) error {
	msg := reason.Message
	if err := w.store.FailJob(ctx, id, msg); err != nil {
		if stale(err) {
			w.log.WithError(err).WithField("job_id", id).Warn("job expired before its error was stored")
			return nil
		}
		return err
	}
	w.log.WithFields(logx.Fields{"job_id": id, "code": reason.Code, "reason": msg}).Warn("job failed")

	w.record(ctx, Outcome{
		JobID:  id,
		Status: StatusFailed,
		Input:  in,
		Error:  ptrx.String(msg),
	}, start)
	return nil
}

// stale reports a job that expired or already reached a terminal state.
func stale(err error) bool {
	return errx.HasCode(err, ErrJobNotFound) || errx.HasCode(err, ErrInvalidTransition)
}

func (w *Worker) record(ctx context.Context, o Outcome, start time.Time) {
	if w.opts.Recorder == nil {
		return
	}
	o.Worker = w.name
	o.FinishedAt = time.Now().UTC()
	o.Duration = o.FinishedAt.Sub(start.UTC())

	if err := w.opts.Recorder.Record(ctx, o); err != nil {
		w.log.WithError(err).WithField("job_id", o.JobID).Warn("could not archive job outcome")
	}
}
