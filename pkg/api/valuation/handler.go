package valuation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"reverse_dcf/pkg/api/respond"
	"reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/core/report"
	coreValuation "reverse_dcf/pkg/core/valuation"

	"github.com/sirupsen/logrus"
)

type Handler struct {
	cfg *config.Config
	log *logrus.Logger
}

func NewHandler(cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{cfg: cfg, log: log}
}

// HandleCalculate handles POST /api/valuation. Inputs are percent values as
// shown on the dashboard; omitted inputs take their defaults. current_pe is the
// value from an earlier company lookup, if the caller has one.
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	req := report.Request{Inputs: h.cfg.Inputs.Defaults()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, respond.ErrorBody{
			Error:     fmt.Sprintf("invalid request body: %v", err),
			RequestID: respond.RequestID(r.Context()),
		})
		return
	}

	if err := h.cfg.Inputs.Check(req.Inputs); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	rep, err := report.Evaluate(req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"request_id":   respond.RequestID(r.Context()),
		"report_id":    rep.ID,
		"symbol":       rep.Symbol,
		"intrinsic_pe": rep.IntrinsicPE,
		"verdict":      rep.Verdict,
	}).Info("Valuation calculated")
	respond.JSON(w, http.StatusOK, rep)
}

// HandleGauge handles GET /api/valuation/gauge.svg?value=
func (h *Handler) HandleGauge(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("value")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respond.Error(w, r, h.log, coreValuation.NewInputError("value", 0, fmt.Sprintf("not a number: %q", raw)))
		return
	}

	svg, err := report.Gauge(value, h.cfg.Gauge)
	if err != nil {
		respond.Error(w, r, h.log, coreValuation.NewInputError("value", value, err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(svg)
}
