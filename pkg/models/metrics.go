package models

import (
	"time"

	"reverse_dcf/pkg/core/valuation"
)

// CompanyMetrics is the result of a metrics lookup.
// A nil field means the metric was not published, not that it is zero.
type CompanyMetrics struct {
	Symbol      string    `json:"symbol"`
	CurrentPE   *float64  `json:"current_pe"`
	ReferencePE *float64  `json:"reference_pe"` // e.g. FY23 P/E
	ROCE        *float64  `json:"roce"`         // 5-yr median pre-tax RoCE, percent
	Source      string    `json:"source"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// HasAny reports whether at least one metric was found
func (m *CompanyMetrics) HasAny() bool {
	return m != nil && (m.CurrentPE != nil || m.ReferencePE != nil || m.ROCE != nil)
}

// ValuationReport is the caller-held outcome of the calculate action
type ValuationReport struct {
	ID             string                     `json:"id"`
	Symbol         string                     `json:"symbol,omitempty"`
	Inputs         valuation.PercentInputs    `json:"inputs"`
	Params         valuation.DCFParams        `json:"params"`
	IntrinsicPE    float64                    `json:"intrinsic_pe"`
	CurrentPE      *float64                   `json:"current_pe,omitempty"`
	Verdict        valuation.Verdict          `json:"verdict,omitempty"`
	VerdictSkipped string                     `json:"verdict_skipped,omitempty"`
	Projection     []valuation.YearProjection `json:"projection,omitempty"`
	PVExplicit     float64                    `json:"pv_explicit"`
	PVTerminal     float64                    `json:"pv_terminal"`
	GeneratedAt    time.Time                  `json:"generated_at"`
}
