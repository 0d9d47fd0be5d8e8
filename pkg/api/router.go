// Package api wires the HTTP handlers into one router.
package api

import (
	"net/http"

	"reverse_dcf/pkg/api/company"
	apiConfig "reverse_dcf/pkg/api/config"
	"reverse_dcf/pkg/api/dashboard"
	"reverse_dcf/pkg/api/respond"
	"reverse_dcf/pkg/api/valuation"
	"reverse_dcf/pkg/core/config"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the full HTTP surface
func NewRouter(cfg *config.Config, lookup company.MetricsLookup, log *logrus.Logger) (http.Handler, error) {
	dash, err := dashboard.NewHandler(cfg, lookup, log)
	if err != nil {
		return nil, err
	}
	configHandler := apiConfig.NewHandler(cfg)
	companyHandler := company.NewHandler(lookup, log)
	valuationHandler := valuation.NewHandler(cfg, log)

	r := mux.NewRouter()
	r.Use(respond.Logging(log))

	// Dashboard
	r.HandleFunc("/", dash.HandleIndex).Methods("GET")
	r.HandleFunc("/dashboard/fetch", dash.HandleFetch).Methods("POST")
	r.HandleFunc("/dashboard/calculate", dash.HandleCalculate).Methods("POST")

	// JSON API
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/config", configHandler.HandleConfig).Methods("GET")
	apiRouter.HandleFunc("/company/{symbol}", companyHandler.HandleLookup).Methods("GET")
	apiRouter.HandleFunc("/valuation", valuationHandler.HandleCalculate).Methods("POST")
	apiRouter.HandleFunc("/valuation/gauge.svg", valuationHandler.HandleGauge).Methods("GET")

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	return respond.CORS(r), nil
}
