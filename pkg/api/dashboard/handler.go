// Package dashboard serves the HTML dashboard. Its two actions, fetch and
// calculate, are independent: whatever one action produced reaches the other
// only through form fields the browser sends back.
package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"reverse_dcf/pkg/api/company"
	"reverse_dcf/pkg/api/respond"
	"reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/core/report"
	"reverse_dcf/pkg/core/valuation"
	"reverse_dcf/pkg/models"

	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

type sliderView struct {
	Name   string
	Bounds config.Slider
	Value  float64
}

var funcs = template.FuncMap{
	"slider": func(name string, b config.Slider, v float64) sliderView {
		return sliderView{Name: name, Bounds: b, Value: v}
	},
	"float": func(i int) float64 { return float64(i) },
	"deref": func(f *float64) float64 { return *f },
}

// page is everything the template renders
type page struct {
	Symbol      string
	Bounds      config.InputBounds
	Inputs      valuation.PercentInputs
	Metrics     *models.CompanyMetrics
	MetricsHTML template.HTML
	LookupError string
	Report      *models.ValuationReport
	SummaryHTML template.HTML
	CalcError   string
}

type Handler struct {
	cfg    *config.Config
	lookup company.MetricsLookup
	log    *logrus.Logger
	tmpl   *template.Template
}

func NewHandler(cfg *config.Config, lookup company.MetricsLookup, log *logrus.Logger) (*Handler, error) {
	tmpl, err := template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return &Handler{cfg: cfg, lookup: lookup, log: log, tmpl: tmpl}, nil
}

func (h *Handler) newPage() *page {
	return &page{
		Symbol: "NESTLEIND",
		Bounds: h.cfg.Inputs,
		Inputs: h.cfg.Inputs.Defaults(),
	}
}

// HandleIndex handles GET /
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.newPage())
}

// HandleFetch handles POST /dashboard/fetch
func (h *Handler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	p := h.newPage()
	if err := r.ParseForm(); err != nil {
		p.LookupError = "Invalid form submission."
		h.render(w, r, http.StatusBadRequest, p)
		return
	}
	p.Symbol = strings.TrimSpace(r.PostForm.Get("symbol"))

	// Slider values ride along so a fetch does not reset them
	if inputs, err := inputsFromForm(r, p.Inputs); err == nil {
		p.Inputs = inputs
	}

	metrics, err := h.lookup.Lookup(r.Context(), p.Symbol)
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"request_id": respond.RequestID(r.Context()),
			"symbol":     p.Symbol,
		}).WithError(err).Warn("Company lookup failed")
		p.LookupError = fmt.Sprintf("Failed to fetch data for %s. Please check the symbol and try again.", p.Symbol)
		h.render(w, r, respond.StatusFor(err), p)
		return
	}

	h.showMetrics(p, metrics)
	h.render(w, r, http.StatusOK, p)
}

// HandleCalculate handles POST /dashboard/calculate
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	p := h.newPage()
	if err := r.ParseForm(); err != nil {
		p.CalcError = "Invalid form submission."
		h.render(w, r, http.StatusBadRequest, p)
		return
	}

	metrics := metricsFromForm(r)
	if metrics != nil {
		h.showMetrics(p, metrics)
	}

	inputs, err := inputsFromForm(r, p.Inputs)
	if err == nil {
		p.Inputs = inputs
		err = h.cfg.Inputs.Check(inputs)
	}
	if err != nil {
		p.CalcError = fmt.Sprintf("An error occurred while calculating valuation: %v", err)
		h.render(w, r, respond.StatusFor(err), p)
		return
	}

	req := report.Request{Inputs: inputs}
	if metrics != nil {
		req.Symbol = metrics.Symbol
		req.CurrentPE = metrics.CurrentPE
	}

	rep, err := report.Evaluate(req)
	if err != nil {
		p.CalcError = fmt.Sprintf("An error occurred while calculating valuation: %v", err)
		h.render(w, r, respond.StatusFor(err), p)
		return
	}
	p.Report = rep

	summary, err := report.RenderHTML(report.Summary(rep))
	if err != nil {
		h.log.WithError(err).Error("Failed to render valuation summary")
	} else {
		p.SummaryHTML = template.HTML(summary)
	}
	h.render(w, r, http.StatusOK, p)
}

func (h *Handler) showMetrics(p *page, m *models.CompanyMetrics) {
	p.Metrics = m
	p.Symbol = m.Symbol

	html, err := report.RenderHTML(report.MetricsSummary(m))
	if err != nil {
		h.log.WithError(err).Error("Failed to render metrics summary")
		return
	}
	p.MetricsHTML = template.HTML(html)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, p *page) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, p); err != nil {
		h.log.WithField("request_id", respond.RequestID(r.Context())).WithError(err).Error("Failed to render dashboard")
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// metricsFromForm rebuilds the lookup result carried in hidden fields.
// It returns nil when no lookup was done.
func metricsFromForm(r *http.Request) *models.CompanyMetrics {
	symbol := strings.TrimSpace(r.PostForm.Get("symbol"))
	if symbol == "" {
		return nil
	}
	return &models.CompanyMetrics{
		Symbol:      symbol,
		CurrentPE:   optionalFloat(r.PostForm.Get("current_pe")),
		ReferencePE: optionalFloat(r.PostForm.Get("reference_pe")),
		ROCE:        optionalFloat(r.PostForm.Get("metric_roce")),
	}
}

func optionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// inputsFromForm reads the six sliders; absent fields keep their defaults
func inputsFromForm(r *http.Request, defaults valuation.PercentInputs) (valuation.PercentInputs, error) {
	in := defaults
	floats := []struct {
		name string
		dst  *float64
	}{
		{"cost_of_capital", &in.CostOfCapital},
		{"roce", &in.ROCE},
		{"growth_rate", &in.GrowthRate},
		{"terminal_growth", &in.TerminalGrowth},
	}
	for _, f := range floats {
		raw := r.PostForm.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, valuation.NewInputError(f.name, 0, fmt.Sprintf("not a number: %q", raw))
		}
		*f.dst = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"high_growth_period", &in.HighGrowthPeriod},
		{"fade_period", &in.FadePeriod},
	}
	for _, f := range ints {
		raw := r.PostForm.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return in, valuation.NewInputError(f.name, 0, fmt.Sprintf("not a whole number of years: %q", raw))
		}
		*f.dst = v
	}
	return in, nil
}
