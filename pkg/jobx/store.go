package jobx

import (
	"context"
	"time"

	"github.com/Abraxas-365/inferq/pkg/broker"
	"github.com/Abraxas-365/inferq/pkg/logx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
)

// Store keeps job records in the broker. All keys of a job expire together,
// ttl after the job was created, and the status key marks whether a job
// exists.
type Store struct {
	broker broker.Client
	queue  string
	ttl    time.Duration
}

func NewStore(b broker.Client, queue string, ttl time.Duration) *Store {
	return &Store{broker: b, queue: queue, ttl: ttl}
}

func (s *Store) Queue() string { return s.queue }

func (s *Store) TTL() time.Duration { return s.ttl }

// CreateJob writes the input and a pending status, then enqueues the id.
// A worker that pops the id can therefore always see its input. If the
// enqueue fails the written keys are removed so the job never appears to
// exist.
func (s *Store) CreateJob(ctx context.Context, id string, in predictor.Input) error {
	if err := s.broker.Set(ctx, dataKey(id), in, s.ttl); err != nil {
		return err
	}
	if err := s.broker.Set(ctx, statusKey(id), StatusPending, s.ttl); err != nil {
		s.discard(id, dataKey(id))
		return err
	}
	if err := s.broker.Enqueue(ctx, s.queue, id); err != nil {
		s.discard(id, statusKey(id), dataKey(id))
		return err
	}
	return nil
}

// discard removes keys of a job that was never queued. It runs detached
// from the request context because the caller may already be gone.
func (s *Store) discard(id string, keys ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, k := range keys {
		if err := s.broker.Delete(ctx, k); err != nil {
			logx.WithError(err).WithField("job_id", id).Warnf("jobx: could not remove %s of unqueued job", k)
		}
	}
}

// advance checks that the job may move to next and returns the lifetime
// left on it, so later writes keep the expiry set at creation. Expired jobs
// report ErrJobNotFound, terminal ones ErrInvalidTransition.
func (s *Store) advance(ctx context.Context, id string, next JobStatus) (time.Duration, error) {
	current, found, err := s.GetStatus(ctx, id)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, jobNotFound(id)
	}
	if !current.CanTransitionTo(next) {
		return 0, invalidTransition(id, current, next)
	}

	ttl, found, err := s.broker.TTL(ctx, statusKey(id))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, jobNotFound(id)
	}
	return ttl, nil
}

// MarkProcessing records that a worker picked the job up. The queue pop
// already guarantees a single consumer.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	ttl, err := s.advance(ctx, id, StatusProcessing)
	if err != nil {
		return err
	}
	return s.broker.Set(ctx, statusKey(id), StatusProcessing, ttl)
}

// CompleteJob stores the result before flipping the status so a reader
// never sees completed without a result.
func (s *Store) CompleteJob(ctx context.Context, id string, result predictor.Prediction) error {
	ttl, err := s.advance(ctx, id, StatusCompleted)
	if err != nil {
		return err
	}
	if err := s.broker.Set(ctx, resultKey(id), result, ttl); err != nil {
		return err
	}
	return s.broker.Set(ctx, statusKey(id), StatusCompleted, ttl)
}

// FailJob stores the error message, then sets status failed.
func (s *Store) FailJob(ctx context.Context, id, message string) error {
	ttl, err := s.advance(ctx, id, StatusFailed)
	if err != nil {
		return err
	}
	if err := s.broker.Set(ctx, errorKey(id), message, ttl); err != nil {
		return err
	}
	return s.broker.Set(ctx, statusKey(id), StatusFailed, ttl)
}

func (s *Store) GetStatus(ctx context.Context, id string) (JobStatus, bool, error) {
	var st JobStatus
	found, err := s.broker.Get(ctx, statusKey(id), &st)
	return st, found, err
}

func (s *Store) GetInput(ctx context.Context, id string) (*predictor.Input, bool, error) {
	var in predictor.Input
	found, err := s.broker.Get(ctx, dataKey(id), &in)
	if err != nil || !found {
		return nil, false, err
	}
	return &in, true, nil
}

func (s *Store) GetResult(ctx context.Context, id string) (*predictor.Prediction, bool, error) {
	var p predictor.Prediction
	found, err := s.broker.Get(ctx, resultKey(id), &p)
	if err != nil || !found {
		return nil, false, err
	}
	return &p, true, nil
}

func (s *Store) GetError(ctx context.Context, id string) (string, bool, error) {
	var msg string
	found, err := s.broker.Get(ctx, errorKey(id), &msg)
	return msg, found, err
}

// Exists checks the status key, which every live job carries.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	return s.broker.Exists(ctx, statusKey(id))
}

// Snapshot reads the current state of a job. A terminal job whose payload
// key has already expired is reported as not found.
func (s *Store) Snapshot(ctx context.Context, id string) (*Snapshot, error) {
	status, found, err := s.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, jobNotFound(id)
	}
	if !status.Valid() {
		return nil, jobxErrors.New(ErrStoreFailed).
			WithDetail("job_id", id).
			WithDetail("status", string(status))
	}

	snap := &Snapshot{JobID: id, Status: status}
	switch status {
	case StatusCompleted:
		res, ok, err := s.GetResult(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, jobNotFound(id)
		}
		snap.Result = res
	case StatusFailed:
		msg, ok, err := s.GetError(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, jobNotFound(id)
		}
		snap.Error = &msg
	}
	return snap, nil
}

// Dequeue waits up to timeout for the next job id.
func (s *Store) Dequeue(ctx context.Context, timeout time.Duration) (string, bool, error) {
	return s.broker.DequeueBlocking(ctx, s.queue, timeout)
}

func (s *Store) QueueLength(ctx context.Context) (int64, error) {
	return s.broker.QueueLength(ctx, s.queue)
}

func (s *Store) Ping(ctx context.Context) bool {
	return s.broker.Ping(ctx)
}
