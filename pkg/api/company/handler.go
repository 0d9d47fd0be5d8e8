// Package company serves the metrics lookup action.
package company

import (
	"context"
	"net/http"

	"reverse_dcf/pkg/api/respond"
	"reverse_dcf/pkg/models"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// MetricsLookup resolves a company symbol to its published ratios
type MetricsLookup interface {
	Lookup(ctx context.Context, symbol string) (*models.CompanyMetrics, error)
}

type Handler struct {
	lookup MetricsLookup
	log    *logrus.Logger
}

func NewHandler(lookup MetricsLookup, log *logrus.Logger) *Handler {
	return &Handler{lookup: lookup, log: log}
}

// HandleLookup handles GET /api/company/{symbol}
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	metrics, err := h.lookup.Lookup(r.Context(), symbol)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"request_id": respond.RequestID(r.Context()),
		"symbol":     metrics.Symbol,
	}).Info("Company metrics fetched")
	respond.JSON(w, http.StatusOK, metrics)
}
