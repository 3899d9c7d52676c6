package broker

import (
	"net/http"

	"github.com/Abraxas-365/inferq/pkg/errx"
)

var brokerErrors = errx.NewRegistry("BROKER")

var (
	ErrConnection = brokerErrors.Register("CONNECTION", errx.TypeUnavailable, http.StatusServiceUnavailable, "Broker unavailable")
	ErrClosed     = brokerErrors.Register("CLOSED", errx.TypeUnavailable, http.StatusServiceUnavailable, "Broker client closed")
	ErrMarshal    = brokerErrors.Register("MARSHAL", errx.TypeInternal, http.StatusInternalServerError, "Failed to encode value")
	ErrUnmarshal  = brokerErrors.Register("UNMARSHAL", errx.TypeInternal, http.StatusInternalServerError, "Failed to decode value")
)

// Connection wraps a transport failure of op.
func Connection(op string, cause error) *errx.Error {
	return brokerErrors.NewWithCause(ErrConnection, cause).WithDetail("op", op)
}

func Closed(op string) *errx.Error {
	return brokerErrors.New(ErrClosed).WithDetail("op", op)
}

// IsUnavailable reports whether err means the broker could not be reached.
func IsUnavailable(err error) bool {
	return errx.HasCode(err, ErrConnection) || errx.HasCode(err, ErrClosed)
}
