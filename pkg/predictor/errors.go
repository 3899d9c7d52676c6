package predictor

import (
	"net/http"

	"github.com/Abraxas-365/inferq/pkg/errx"
)

var predictorErrors = errx.NewRegistry("PREDICTOR")

var (
	ErrInvalidInput    = predictorErrors.Register("INVALID_INPUT", errx.TypeValidation, http.StatusBadRequest, "Invalid prediction input")
	ErrFeatureMismatch = predictorErrors.Register("FEATURE_MISMATCH", errx.TypeValidation, http.StatusBadRequest, "Input width does not match the model")
	ErrTimeout         = predictorErrors.Register("TIMEOUT", errx.TypeExternal, http.StatusGatewayTimeout, "Prediction timed out")
	ErrInvalidModel    = predictorErrors.Register("INVALID_MODEL", errx.TypeInternal, http.StatusInternalServerError, "Invalid model definition")
	ErrModelLoad       = predictorErrors.Register("MODEL_LOAD", errx.TypeInternal, http.StatusInternalServerError, "Failed to load model")
	ErrClosed          = predictorErrors.Register("CLOSED", errx.TypeInternal, http.StatusInternalServerError, "Predictor is closed")
)

// Errors exposes the registry so implementations share one code space.
func Errors() *errx.Registry {
	return predictorErrors
}
