package report

import (
	"errors"
	"time"

	"reverse_dcf/pkg/core/valuation"
	"reverse_dcf/pkg/models"

	"github.com/google/uuid"
)

// Request is everything the calculate action needs. CurrentPE comes from a
// lookup result the caller kept; it is optional.
type Request struct {
	Symbol    string                  `json:"symbol,omitempty"`
	Inputs    valuation.PercentInputs `json:"inputs"`
	CurrentPE *float64                `json:"current_pe,omitempty"`
}

// Evaluate runs the DCF engine and classification for one request.
// Only ErrInvalidInput is returned as an error; missing data is recorded in
// VerdictSkipped.
func Evaluate(req Request) (*models.ValuationReport, error) {
	params := req.Inputs.Params()
	res, err := valuation.CalculateDCF(params)
	if err != nil {
		return nil, err
	}

	r := &models.ValuationReport{
		ID:          uuid.New().String(),
		Symbol:      req.Symbol,
		Inputs:      req.Inputs,
		Params:      params,
		IntrinsicPE: res.IntrinsicPE,
		CurrentPE:   req.CurrentPE,
		Projection:  res.Projection,
		PVExplicit:  res.PVExplicit,
		PVTerminal:  res.PVTerminal,
		GeneratedAt: time.Now().UTC(),
	}

	verdict, err := valuation.Classify(res.IntrinsicPE, req.CurrentPE)
	switch {
	case err == nil:
		r.Verdict = verdict
	case errors.Is(err, valuation.ErrMissingData):
		r.VerdictSkipped = "current PE not available; fetch company data first"
	default:
		return nil, err
	}
	return r, nil
}
