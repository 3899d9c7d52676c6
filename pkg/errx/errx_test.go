package errx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Abraxas-365/inferq/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testErrors = errx.NewRegistry("TEST")

var (
	errMissing = testErrors.Register("MISSING", errx.TypeNotFound, http.StatusNotFound, "thing not found")
	errDown    = testErrors.Register("DOWN", errx.TypeUnavailable, 0, "backend down")
)

func TestRegistry_Register(t *testing.T) {
	assert.Equal(t, "TEST_MISSING", errMissing.Code)
	assert.Equal(t, http.StatusServiceUnavailable, errDown.HTTPStatus)

	got, ok := testErrors.Get("MISSING")
	require.True(t, ok)
	assert.Same(t, errMissing, got)
	assert.Len(t, testErrors.Codes(), 2)
}

func TestError_IsMatchesByCode(t *testing.T) {
	a := testErrors.New(errMissing).WithDetail("id", "1")
	b := testErrors.New(errMissing)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, testErrors.New(errDown)))
}

func TestHasCode(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := testErrors.NewWithCause(errDown, cause)
	wrapped := errx.Wrap(err, "submit failed", errx.TypeUnavailable)

	assert.True(t, errx.HasCode(wrapped, errDown))
	assert.False(t, errx.HasCode(wrapped, errMissing))
	assert.ErrorIs(t, wrapped, cause)
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"nil stays nil", nil, "", 0},
		{"plain error", errors.New("boom"), "INTERNAL", http.StatusInternalServerError},
		{"keeps registered code", testErrors.New(errMissing), "TEST_MISSING", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errx.Wrap(tt.err, "ctx", errx.TypeInternal)
			if tt.err == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}
}

func TestFrom(t *testing.T) {
	assert.Nil(t, errx.From(nil))

	e := errx.From(errors.New("raw"))
	assert.Equal(t, errx.TypeInternal, e.Type)

	reg := testErrors.New(errDown)
	assert.Same(t, reg, errx.From(errx.Wrapf(reg, errx.TypeUnavailable, "op %d", 1).Err))
	assert.True(t, errx.IsType(reg, errx.TypeUnavailable))
}

func TestError_MarshalJSON(t *testing.T) {
	e := testErrors.New(errMissing).WithDetail("job_id", "abc")

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "TEST_MISSING", body["code"])
	assert.Equal(t, "[TEST_MISSING] thing not found", body["error"])
	assert.Equal(t, "abc", body["details"].(map[string]any)["job_id"])

	resp := e.ToResponse()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", resp.Type)
}
