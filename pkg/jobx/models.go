package jobx

import (
	"time"

	"github.com/Abraxas-365/inferq/pkg/predictor"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can happen.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle
// monotonic: pending, then processing, then exactly one terminal state.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next.IsTerminal()
	case StatusProcessing:
		return next.IsTerminal()
	default:
		return false
	}
}

// Failure messages recorded by the worker.
const (
	MsgDataNotFound = "Data not found"
	MsgNoResults    = "No results returned"
)

// Snapshot is what a poll returns. Result is set only when the job
// completed and Error only when it failed.
type Snapshot struct {
	JobID  string                `json:"job_id"`
	Status JobStatus             `json:"status"`
	Result *predictor.Prediction `json:"result"`
	Error  *string               `json:"error"`
}

// Outcome describes a job that reached a terminal state.
type Outcome struct {
	JobID      string
	Status     JobStatus
	Input      *predictor.Input
	Result     *predictor.Prediction
	Error      *string
	Worker     string
	Duration   time.Duration
	FinishedAt time.Time
}

// FastPathResponse pairs an immediate prediction with the handle of the job
// queued for the full model.
type FastPathResponse struct {
	JobID      string                `json:"job_id"`
	ResultSync *predictor.Prediction `json:"result_sync"`
	SyncError  *string               `json:"sync_error,omitempty"`
}

const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"

	ComponentOK    = "ok"
	ComponentError = "error"
)

// HealthReport summarizes broker reachability.
type HealthReport struct {
	Status      string            `json:"status"`
	Components  map[string]string `json:"components"`
	QueueLength *int64            `json:"queue_length,omitempty"`
}

func (h HealthReport) Healthy() bool {
	return h.Status == HealthHealthy
}
