package errx

import "net/http"

// Type groups errors by how a caller should react to them.
type Type string

const (
	TypeInternal   Type = "INTERNAL"
	TypeValidation Type = "VALIDATION"
	TypeNotFound   Type = "NOT_FOUND"
	TypeConflict   Type = "CONFLICT"
	TypeBusiness   Type = "BUSINESS"
	TypeExternal   Type = "EXTERNAL"

	// TypeUnavailable marks a dependency that cannot be reached right now.
	// Retrying later may succeed.
	TypeUnavailable Type = "UNAVAILABLE"
)

func (t Type) String() string {
	return string(t)
}

// Status returns the default HTTP status for the type.
func (t Type) Status() int {
	switch t {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeBusiness:
		return http.StatusUnprocessableEntity
	case TypeExternal:
		return http.StatusBadGateway
	case TypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
