package jobx

import (
	"net/http"

	"github.com/Abraxas-365/inferq/pkg/errx"
)

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrJobNotFound       = jobxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Job not found")
	ErrSubmissionFailed  = jobxErrors.Register("SUBMISSION_FAILED", errx.TypeUnavailable, http.StatusServiceUnavailable, "Job could not be queued, broker unavailable")
	ErrStoreFailed       = jobxErrors.Register("STORE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to write job record")
	ErrDataMissing       = jobxErrors.Register("DATA_MISSING", errx.TypeNotFound, http.StatusNotFound, MsgDataNotFound)
	ErrPredictionFailed  = jobxErrors.Register("PREDICTION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Prediction failed")
	ErrInvalidTransition = jobxErrors.Register("INVALID_TRANSITION", errx.TypeConflict, http.StatusConflict, "Job status cannot change that way")
	ErrAlreadyRunning    = jobxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, http.StatusConflict, "Worker pool is already running")
	ErrShutdownTimeout   = jobxErrors.Register("SHUTDOWN_TIMEOUT", errx.TypeInternal, http.StatusInternalServerError, "Graceful shutdown timed out")
)

func jobNotFound(id string) *errx.Error {
	return jobxErrors.New(ErrJobNotFound).WithDetail("job_id", id)
}

func invalidTransition(id string, from, to JobStatus) *errx.Error {
	return jobxErrors.New(ErrInvalidTransition).
		WithDetail("job_id", id).
		WithDetail("from", string(from)).
		WithDetail("to", string(to))
}

// Errors exposes the JOBX registry to sibling packages.
func Errors() *errx.Registry {
	return jobxErrors
}
