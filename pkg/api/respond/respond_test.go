package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"reverse_dcf/pkg/core/ingest"
	"reverse_dcf/pkg/core/valuation"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", valuation.NewInputError("roce", 0, "zero"), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("ABC: %w", ingest.ErrNotFound), http.StatusNotFound},
		{"upstream", fmt.Errorf("%w: status 503", ingest.ErrUpstream), http.StatusBadGateway},
		{"deadline", fmt.Errorf("lookup: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"upstream timeout", fmt.Errorf("%w: %w", ingest.ErrUpstream, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestError_InputErrorFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/valuation", nil)

	Error(rec, req, quietLogger(), valuation.NewInputError("fade_period", 0, "must be at least one year"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fade_period", body.Param)
	assert.Equal(t, "must be at least one year", body.Reason)
	assert.Contains(t, body.Error, "fade_period")
}

func TestLogging_AssignsRequestID(t *testing.T) {
	var seen string
	h := Logging(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	// an incoming ID is kept
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestRequestID_Empty(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/valuation", nil))
	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	assert.True(t, called)
}
