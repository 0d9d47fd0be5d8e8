package valuation

import (
	"math"
)

// TaxRate is the corporate tax rate assumed by the reverse DCF model
const TaxRate = 0.25

// MaxHorizonYears bounds the explicit projection (high growth plus fade)
const MaxHorizonYears = 1000

// DCFParams encapsulates the six inputs of the reverse DCF model.
// Rates are fractions (0.10 for 10%), periods are whole years.
type DCFParams struct {
	CostOfCapital    float64 `json:"cost_of_capital"`
	ROCE             float64 `json:"roce"`            // Steady-state return on capital employed
	GrowthRate       float64 `json:"growth_rate"`     // Growth during the high-growth phase
	HighGrowthPeriod int     `json:"high_growth_period"`
	FadePeriod       int     `json:"fade_period"`
	TerminalGrowth   float64 `json:"terminal_growth"`
}

// TotalYears is the length of the explicit projection horizon
func (p DCFParams) TotalYears() int {
	return p.HighGrowthPeriod + p.FadePeriod
}

// YearProjection is one row of the explicit projection
type YearProjection struct {
	Year             int     `json:"year"`
	Growth           float64 `json:"growth"`
	ROCE             float64 `json:"roce"`
	ReinvestmentRate float64 `json:"reinvestment_rate"`
	FCFE             float64 `json:"fcfe"` // Free cash flow to equity as a ratio of earnings
	DiscountFactor   float64 `json:"discount_factor"`
	PresentValue     float64 `json:"present_value"`
}

// DCFResult holds the intrinsic P/E and the intermediate values used to derive it
type DCFResult struct {
	Projection    []YearProjection `json:"projection"`
	PVExplicit    float64          `json:"pv_explicit"`
	TerminalValue float64          `json:"terminal_value"`
	PVTerminal    float64          `json:"pv_terminal"`
	TotalValue    float64          `json:"total_value"`
	IntrinsicPE   float64          `json:"intrinsic_pe"`
}

// ComputeIntrinsicPE returns the earnings multiple implied by the reverse DCF model.
func ComputeIntrinsicPE(costOfCapital, roce, growthRate float64, highGrowthPeriod, fadePeriod int, terminalGrowth float64) (float64, error) {
	res, err := CalculateDCF(DCFParams{
		CostOfCapital:    costOfCapital,
		ROCE:             roce,
		GrowthRate:       growthRate,
		HighGrowthPeriod: highGrowthPeriod,
		FadePeriod:       fadePeriod,
		TerminalGrowth:   terminalGrowth,
	})
	if err != nil {
		return 0, err
	}
	return res.IntrinsicPE, nil
}

// CalculateDCF runs the two-phase (high growth, then fade) reverse DCF.
//
// FORMULA: PE = [ Σ FCFE_t·DF_t + FCFE_N·(1+g_T)/(r−g_T)·DF_N ] / (1 − T)
//
// Where:
//   - FCFE_t = (1 − g_t/RoCE_t)·(1 − T)
//   - DF_t = 1/(1+r)^t, r = cost of capital
//   - g_T = terminal growth, N = last explicit year
//
// The terminal value is anchored to the last explicit FCFE, not to a separately
// projected year N+1.
func CalculateDCF(p DCFParams) (*DCFResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	// 1. Growth / RoCE path
	projection, err := projectYears(p)
	if err != nil {
		return nil, err
	}

	// 2-4. FCFE, discount factors, PV of the explicit period
	var pvExplicit float64
	discount := 1.0
	for i := range projection {
		y := &projection[i]
		y.ReinvestmentRate = y.Growth / y.ROCE
		y.FCFE = (1 - y.ReinvestmentRate) * (1 - TaxRate)

		discount /= 1 + p.CostOfCapital
		y.DiscountFactor = discount
		y.PresentValue = y.FCFE * discount
		pvExplicit += y.PresentValue
	}

	// 5-6. Terminal value (Gordon growth on the final FCFE)
	last := projection[len(projection)-1]
	terminalValue := last.FCFE * (1 + p.TerminalGrowth) / (p.CostOfCapital - p.TerminalGrowth)
	pvTerminal := terminalValue * last.DiscountFactor

	// 7-8. Aggregate and gross up to an earnings multiple
	total := pvExplicit + pvTerminal

	return &DCFResult{
		Projection:    projection,
		PVExplicit:    pvExplicit,
		TerminalValue: terminalValue,
		PVTerminal:    pvTerminal,
		TotalValue:    total,
		IntrinsicPE:   total / (1 - TaxRate),
	}, nil
}

// projectYears builds the flat high-growth phase followed by a linear fade to
// (terminal growth, cost of capital). The final fade year lands on the terminal
// values exactly.
func projectYears(p DCFParams) ([]YearProjection, error) {
	total := p.TotalYears()
	years := make([]YearProjection, total)

	for i := 0; i < total; i++ {
		growth, roce := p.GrowthRate, p.ROCE
		if i >= p.HighGrowthPeriod {
			t := i - p.HighGrowthPeriod + 1
			if t == p.FadePeriod {
				growth, roce = p.TerminalGrowth, p.CostOfCapital
			} else {
				frac := float64(t) / float64(p.FadePeriod)
				growth = p.GrowthRate - (p.GrowthRate-p.TerminalGrowth)*frac
				roce = p.ROCE - (p.ROCE-p.CostOfCapital)*frac
			}
		}

		if roce == 0 {
			return nil, invalid("roce", roce, "projected return on capital is zero in year %d", i+1)
		}

		years[i] = YearProjection{Year: i + 1, Growth: growth, ROCE: roce}
	}
	return years, nil
}

// Validate checks the numeric domain before any arithmetic is attempted
func (p DCFParams) Validate() error {
	rates := []struct {
		name string
		v    float64
	}{
		{"cost_of_capital", p.CostOfCapital},
		{"roce", p.ROCE},
		{"growth_rate", p.GrowthRate},
		{"terminal_growth", p.TerminalGrowth},
	}
	for _, r := range rates {
		if math.IsNaN(r.v) || math.IsInf(r.v, 0) {
			return invalid(r.name, r.v, "must be a finite number")
		}
	}

	if p.HighGrowthPeriod < 0 {
		return invalid("high_growth_period", float64(p.HighGrowthPeriod), "must not be negative")
	}
	if p.FadePeriod <= 0 {
		return invalid("fade_period", float64(p.FadePeriod), "must be at least one year")
	}
	if p.FadePeriod > MaxHorizonYears {
		return invalid("fade_period", float64(p.FadePeriod), "must not exceed %d years", MaxHorizonYears)
	}
	if p.HighGrowthPeriod > MaxHorizonYears-p.FadePeriod {
		return invalid("high_growth_period", float64(p.HighGrowthPeriod),
			"high growth plus fade period must not exceed %d years", MaxHorizonYears)
	}
	if p.CostOfCapital <= 0 {
		return invalid("cost_of_capital", p.CostOfCapital, "must be positive")
	}
	if p.CostOfCapital <= p.TerminalGrowth {
		return invalid("cost_of_capital", p.CostOfCapital,
			"must exceed terminal growth (%g) for the terminal value to be defined", p.TerminalGrowth)
	}
	if p.ROCE == 0 {
		return invalid("roce", p.ROCE, "must not be zero")
	}
	return nil
}
