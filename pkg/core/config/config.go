// Package config loads service configuration from a YAML file, a .env file
// and the process environment, in that order of precedence (env wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"reverse_dcf/pkg/core/valuation"

	"gopkg.in/yaml.v2"
)

// Config holds application configuration
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Server   ServerConfig  `yaml:"server"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Inputs   InputBounds   `yaml:"inputs"`
	Gauge    GaugeConfig   `yaml:"gauge"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MetricsConfig describes the remote metrics page.
// BaseURL may contain a {symbol} placeholder.
type MetricsConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	RateLimit int           `yaml:"rate_limit"` // requests per second
	Labels    MetricLabels  `yaml:"labels"`
}

// MetricLabels are the captions the metrics page uses for each value
type MetricLabels struct {
	CurrentPE   string `yaml:"current_pe"`
	ReferencePE string `yaml:"reference_pe"`
	ROCE        string `yaml:"roce"`
	MarketCap   string `yaml:"market_cap"`
	NetProfit   string `yaml:"net_profit"`
}

// Slider is one bounded numeric input
type Slider struct {
	Label   string  `yaml:"label" json:"label"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Default float64 `yaml:"default" json:"default"`
	Step    float64 `yaml:"step" json:"step"`
}

// InputBounds holds the range of every DCF input, rates in percent
type InputBounds struct {
	CostOfCapital    Slider `yaml:"cost_of_capital" json:"cost_of_capital"`
	ROCE             Slider `yaml:"roce" json:"roce"`
	GrowthRate       Slider `yaml:"growth_rate" json:"growth_rate"`
	HighGrowthPeriod Slider `yaml:"high_growth_period" json:"high_growth_period"`
	FadePeriod       Slider `yaml:"fade_period" json:"fade_period"`
	TerminalGrowth   Slider `yaml:"terminal_growth" json:"terminal_growth"`
}

// GaugeBand is a coloured range on the gauge axis
type GaugeBand struct {
	From  float64 `yaml:"from" json:"from"`
	To    float64 `yaml:"to" json:"to"`
	Color string  `yaml:"color" json:"color"`
}

type GaugeConfig struct {
	Title    string      `yaml:"title" json:"title"`
	Max      float64     `yaml:"max" json:"max"`
	BarColor string      `yaml:"bar_color" json:"bar_color"`
	BgColor  string      `yaml:"bg_color" json:"bg_color"`
	Bands    []GaugeBand `yaml:"bands" json:"bands"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			BaseURL:   "https://reversedcf-fb0dd87970ce.herokuapp.com/val?symbol={symbol}",
			Timeout:   10 * time.Second,
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko)",
			RateLimit: 2,
			Labels: MetricLabels{
				CurrentPE:   "Stock P/E",
				ReferencePE: "FY23PE",
				ROCE:        "ROCE",
				MarketCap:   "Market Cap",
				NetProfit:   "Net Profit",
			},
		},
		Inputs: InputBounds{
			CostOfCapital:    Slider{Label: "Cost of Capital (%)", Min: 5, Max: 20, Default: 10, Step: 0.1},
			ROCE:             Slider{Label: "RoCE (%)", Min: 5, Max: 50, Default: 15, Step: 0.1},
			GrowthRate:       Slider{Label: "Growth Rate (%)", Min: 5, Max: 30, Default: 10, Step: 0.1},
			HighGrowthPeriod: Slider{Label: "High Growth Period (Years)", Min: 5, Max: 25, Default: 15, Step: 1},
			FadePeriod:       Slider{Label: "Fade Period (Years)", Min: 5, Max: 25, Default: 15, Step: 1},
			TerminalGrowth:   Slider{Label: "Terminal Growth Rate (%)", Min: 2, Max: 7.5, Default: 3, Step: 0.1},
		},
		Gauge: GaugeConfig{
			Title:    "Intrinsic PE",
			Max:      50,
			BarColor: "cyan",
			BgColor:  "lightgrey",
			Bands: []GaugeBand{
				{From: 0, To: 20, Color: "red"},
				{From: 20, To: 35, Color: "yellow"},
				{From: 35, To: 50, Color: "green"},
			},
		},
	}
}

// Load overlays the YAML file at path (if it exists) and the environment on
// top of Default. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// optional
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Metrics.BaseURL = getEnv("METRICS_URL", c.Metrics.BaseURL)

	if v, ok := os.LookupEnv("METRICS_RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_RATE_LIMIT %q: %w", v, err)
		}
		c.Metrics.RateLimit = n
	}
	if v, ok := os.LookupEnv("METRICS_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_TIMEOUT %q: %w", v, err)
		}
		c.Metrics.Timeout = d
	}
	return nil
}

// Validate checks the values the rest of the service relies on
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Metrics.BaseURL == "" {
		return fmt.Errorf("metrics.base_url is required")
	}
	if c.Metrics.RateLimit <= 0 {
		return fmt.Errorf("metrics.rate_limit must be positive, got %d", c.Metrics.RateLimit)
	}
	if c.Gauge.Max <= 0 {
		return fmt.Errorf("gauge.max must be positive, got %g", c.Gauge.Max)
	}
	for name, s := range c.Inputs.sliders() {
		if s.Min > s.Max {
			return fmt.Errorf("inputs.%s: min %g exceeds max %g", name, s.Min, s.Max)
		}
		if s.Default < s.Min || s.Default > s.Max {
			return fmt.Errorf("inputs.%s: default %g outside [%g, %g]", name, s.Default, s.Min, s.Max)
		}
	}
	return nil
}

func (b InputBounds) sliders() map[string]Slider {
	return map[string]Slider{
		"cost_of_capital":    b.CostOfCapital,
		"roce":               b.ROCE,
		"growth_rate":        b.GrowthRate,
		"high_growth_period": b.HighGrowthPeriod,
		"fade_period":        b.FadePeriod,
		"terminal_growth":    b.TerminalGrowth,
	}
}

// Defaults returns the slider defaults as dashboard inputs
func (b InputBounds) Defaults() valuation.PercentInputs {
	return valuation.PercentInputs{
		CostOfCapital:    b.CostOfCapital.Default,
		ROCE:             b.ROCE.Default,
		GrowthRate:       b.GrowthRate.Default,
		HighGrowthPeriod: int(b.HighGrowthPeriod.Default),
		FadePeriod:       int(b.FadePeriod.Default),
		TerminalGrowth:   b.TerminalGrowth.Default,
	}
}

// Check rejects inputs outside the configured ranges
func (b InputBounds) Check(in valuation.PercentInputs) error {
	checks := []struct {
		name string
		s    Slider
		v    float64
	}{
		{"cost_of_capital", b.CostOfCapital, in.CostOfCapital},
		{"roce", b.ROCE, in.ROCE},
		{"growth_rate", b.GrowthRate, in.GrowthRate},
		{"high_growth_period", b.HighGrowthPeriod, float64(in.HighGrowthPeriod)},
		{"fade_period", b.FadePeriod, float64(in.FadePeriod)},
		{"terminal_growth", b.TerminalGrowth, in.TerminalGrowth},
	}
	for _, c := range checks {
		if c.v < c.s.Min || c.v > c.s.Max {
			return valuation.NewInputError(c.name, c.v,
				fmt.Sprintf("must be between %g and %g", c.s.Min, c.s.Max))
		}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
