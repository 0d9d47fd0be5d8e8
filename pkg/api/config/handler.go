package config

import (
	"net/http"

	"reverse_dcf/pkg/api/respond"
	coreConfig "reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/core/valuation"
)

type Response struct {
	Inputs   coreConfig.InputBounds  `json:"inputs"`
	Defaults valuation.PercentInputs `json:"defaults"`
	Gauge    coreConfig.GaugeConfig  `json:"gauge"`
	TaxRate  float64                 `json:"tax_rate"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Config *coreConfig.Config
}

// NewHandler creates a new config handler
func NewHandler(cfg *coreConfig.Config) *Handler {
	return &Handler{
		Config: cfg,
	}
}

// HandleConfig handles GET /api/config
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, Response{
		Inputs:   h.Config.Inputs,
		Defaults: h.Config.Inputs.Defaults(),
		Gauge:    h.Config.Gauge,
		TaxRate:  valuation.TaxRate,
	})
}
