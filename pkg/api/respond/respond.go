// Package respond holds the JSON/error helpers and middleware shared by the API handlers.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"reverse_dcf/pkg/core/ingest"
	"reverse_dcf/pkg/core/valuation"

	"github.com/sirupsen/logrus"
)

// ErrorBody is the JSON shape of every API error
type ErrorBody struct {
	Error     string `json:"error"`
	Param     string `json:"param,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// JSON writes v with the given status
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// StatusFor maps domain errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, valuation.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ingest.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an ErrorBody. Server-side failures are logged.
func Error(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error) {
	status := StatusFor(err)
	body := ErrorBody{Error: err.Error(), RequestID: RequestID(r.Context())}

	var inErr *valuation.InputError
	if errors.As(err, &inErr) {
		body.Param = inErr.Param
		body.Reason = inErr.Reason
	}

	entry := log.WithFields(logrus.Fields{
		"request_id": body.RequestID,
		"status":     status,
		"path":       r.URL.Path,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Info("Request rejected")
	}

	JSON(w, status, body)
}
