package jobx

import (
	"context"
	"time"

	"github.com/Abraxas-365/inferq/pkg/asyncx"
	"github.com/Abraxas-365/inferq/pkg/broker"
	"github.com/Abraxas-365/inferq/pkg/errx"
	"github.com/Abraxas-365/inferq/pkg/logx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
	"github.com/Abraxas-365/inferq/pkg/ptrx"
	"github.com/google/uuid"
)

// Service is the submit and poll side of the queue. It never waits for a
// prediction except on the explicit fast path.
type Service struct {
	store       *Store
	fast        predictor.Predictor
	fastTimeout time.Duration
	metadata    *predictor.Metadata
	newID       func() string
}

type ServiceOption func(*Service)

// WithFastPredictor enables SubmitWithFastPath.
func WithFastPredictor(p predictor.Predictor, timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.fast = p
		s.fastTimeout = timeout
	}
}

// WithModelMetadata describes the model the workers run.
func WithModelMetadata(md predictor.Metadata) ServiceOption {
	return func(s *Service) {
		s.metadata = &md
	}
}

// WithIDGenerator replaces the UUIDv4 job id generator.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		s.newID = fn
	}
}

func NewService(store *Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:       store,
		fastTimeout: time.Second,
		newID:       uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit persists in as a new pending job and returns its id. When the
// broker cannot be reached nothing is created and ErrSubmissionFailed is
// returned.
func (s *Service) Submit(ctx context.Context, in predictor.Input) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	id := s.newID()
	if err := s.store.CreateJob(ctx, id, in); err != nil {
		if broker.IsUnavailable(err) {
			return "", jobxErrors.NewWithCause(ErrSubmissionFailed, err).WithDetail("queue", s.store.Queue())
		}
		return "", jobxErrors.NewWithCause(ErrStoreFailed, err).WithDetail("job_id", id)
	}

	logx.WithFields(logx.Fields{"job_id": id, "queue": s.store.Queue()}).Debug("jobx: job submitted")
	return id, nil
}

// SubmitWithFastPath queues in for the workers and, independently, scores
// it with the fast predictor. A failed fast prediction is reported in
// SyncError and does not affect the queued job.
func (s *Service) SubmitWithFastPath(ctx context.Context, in predictor.Input) (*FastPathResponse, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var fastRes *asyncx.Future[[]predictor.Prediction]
	if s.fast != nil {
		fastRes = asyncx.Run(func() ([]predictor.Prediction, error) {
			return s.fast.Predict(ctx, in, s.fastTimeout)
		})
	}

	id, err := s.Submit(ctx, in)
	if err != nil {
		return nil, err
	}

	resp := &FastPathResponse{JobID: id}
	if fastRes == nil {
		resp.SyncError = ptrx.String("fast path not configured")
		return resp, nil
	}

	results, err := fastRes.Await()
	switch {
	case err != nil:
		resp.SyncError = ptrx.String(err.Error())
	case len(results) == 0:
		resp.SyncError = ptrx.String(MsgNoResults)
	default:
		resp.ResultSync = &results[0]
	}
	return resp, nil
}

// Poll returns the current snapshot of a job, or ErrJobNotFound when it was
// never created or has expired.
func (s *Service) Poll(ctx context.Context, id string) (*Snapshot, error) {
	if id == "" {
		return nil, jobNotFound(id)
	}
	return s.store.Snapshot(ctx, id)
}

// Health probes the broker and the queue concurrently.
func (s *Service) Health(ctx context.Context) HealthReport {
	res := asyncx.AllSettled(ctx,
		func(ctx context.Context) (int64, error) {
			if !s.store.Ping(ctx) {
				return 0, errx.New("broker ping failed", errx.TypeUnavailable)
			}
			return 0, nil
		},
		func(ctx context.Context) (int64, error) {
			return s.store.QueueLength(ctx)
		},
	)

	report := HealthReport{
		Status: HealthHealthy,
		Components: map[string]string{
			"broker": ComponentOK,
			"worker": ComponentOK,
		},
	}
	if !res[0].OK() {
		report.Components["broker"] = ComponentError
		report.Status = HealthUnhealthy
	}
	if !res[1].OK() {
		report.Components["worker"] = ComponentError
		report.Status = HealthUnhealthy
	} else {
		report.QueueLength = ptrx.To(res[1].Value)
	}
	return report
}

// Metadata describes the queued model, falling back to the fast model.
func (s *Service) Metadata() (predictor.Metadata, bool) {
	switch {
	case s.metadata != nil:
		return *s.metadata, true
	case s.fast != nil:
		return s.fast.Metadata(), true
	}
	return predictor.Metadata{}, false
}
