package valuation

// PercentInputs are the dashboard inputs, with rates expressed in percent
// (10 for 10%) the way the sliders present them.
type PercentInputs struct {
	CostOfCapital    float64 `json:"cost_of_capital" yaml:"cost_of_capital"`
	ROCE             float64 `json:"roce" yaml:"roce"`
	GrowthRate       float64 `json:"growth_rate" yaml:"growth_rate"`
	HighGrowthPeriod int     `json:"high_growth_period" yaml:"high_growth_period"`
	FadePeriod       int     `json:"fade_period" yaml:"fade_period"`
	TerminalGrowth   float64 `json:"terminal_growth" yaml:"terminal_growth"`
}

// Params converts percent inputs to the fractional rates the model uses
func (in PercentInputs) Params() DCFParams {
	return DCFParams{
		CostOfCapital:    in.CostOfCapital / 100,
		ROCE:             in.ROCE / 100,
		GrowthRate:       in.GrowthRate / 100,
		HighGrowthPeriod: in.HighGrowthPeriod,
		FadePeriod:       in.FadePeriod,
		TerminalGrowth:   in.TerminalGrowth / 100,
	}
}
