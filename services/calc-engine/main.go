package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/core/ingest"
	"reverse_dcf/pkg/core/report"
	"reverse_dcf/pkg/core/valuation"
	"reverse_dcf/pkg/models"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	godotenv.Load()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, nil))
}

// run parses args and writes the result to stdout. lookup may be nil, in
// which case a client is built from the loaded config when -symbol is set.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookup func(context.Context, string) (*models.CompanyMetrics, error)) int {
	fs := flag.NewFlagSet("calc-engine", flag.ContinueOnError)
	fs.SetOutput(stderr)

	mode := fs.String("mode", "calculate", "Mode: calculate or projection")
	format := fs.String("format", "text", "Output format: text, json or svg")
	configPath := fs.String("config", "config/app.yaml", "Path to the YAML config")
	symbol := fs.String("symbol", "", "Look up the company's current PE before calculating")
	currentPE := fs.Float64("current-pe", -1, "Current PE to classify against (negative = unknown)")

	var in valuation.PercentInputs
	fs.Float64Var(&in.CostOfCapital, "coc", 10, "Cost of capital (%)")
	fs.Float64Var(&in.ROCE, "roce", 15, "Return on capital employed (%)")
	fs.Float64Var(&in.GrowthRate, "growth", 10, "Growth during the high-growth period (%)")
	fs.IntVar(&in.HighGrowthPeriod, "high", 15, "High-growth period (years)")
	fs.IntVar(&in.FadePeriod, "fade", 15, "Fade period (years)")
	fs.Float64Var(&in.TerminalGrowth, "terminal", 3, "Terminal growth rate (%)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	switch *mode {
	case "calculate", "projection":
	default:
		fmt.Fprintf(stderr, "Unknown mode: %s\n", *mode)
		return 2
	}
	switch *format {
	case "text", "json", "svg":
	default:
		fmt.Fprintf(stderr, "Unknown format: %s\n", *format)
		return 2
	}

	log := logrus.New()
	log.SetOutput(stderr)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		return 1
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	req := report.Request{Symbol: *symbol, Inputs: in}
	if *currentPE >= 0 {
		req.CurrentPE = currentPE
	}

	if *symbol != "" && req.CurrentPE == nil {
		if lookup == nil {
			lookup = ingest.NewClient(cfg.Metrics, log).Lookup
		}
		metrics, err := lookup(ctx, *symbol)
		if err != nil {
			// Valuation still runs, just without a verdict
			log.WithField("symbol", *symbol).WithError(err).Warn("Company lookup failed")
		} else {
			req.Symbol = metrics.Symbol
			req.CurrentPE = metrics.CurrentPE
		}
	}

	rep, err := report.Evaluate(req)
	if err != nil {
		var inErr *valuation.InputError
		if errors.As(err, &inErr) {
			fmt.Fprintf(stderr, "Error: invalid %s: %s\n", inErr.Param, inErr.Reason)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if *mode == "projection" {
			err = enc.Encode(rep.Projection)
		} else {
			err = enc.Encode(rep)
		}
	case "svg":
		var svg []byte
		svg, err = report.Gauge(rep.IntrinsicPE, cfg.Gauge)
		if err == nil {
			_, err = stdout.Write(svg)
		}
	default:
		if *mode == "projection" {
			printProjection(stdout, rep)
		} else {
			printCalculation(stdout, rep)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printCalculation(w io.Writer, rep *models.ValuationReport) {
	if rep.Symbol != "" {
		fmt.Fprintf(w, "Symbol: %s\n", rep.Symbol)
	}
	fmt.Fprintf(w, "Intrinsic PE: %.2f\n", rep.IntrinsicPE)
	fmt.Fprintf(w, "Current PE: %s\n", report.SafeFormat(rep.CurrentPE, 1))
	if rep.Verdict != "" {
		fmt.Fprintf(w, "Verdict: %s\n", rep.Verdict)
	} else {
		fmt.Fprintf(w, "Verdict: skipped (%s)\n", rep.VerdictSkipped)
	}
}

func printProjection(w io.Writer, rep *models.ValuationReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tGrowth\tRoCE\tReinvestment\tFCFE\tDiscount\tPV\t")
	for _, y := range rep.Projection {
		fmt.Fprintf(tw, "%d\t%.2f%%\t%.2f%%\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
			y.Year, y.Growth*100, y.ROCE*100, y.ReinvestmentRate, y.FCFE, y.DiscountFactor, y.PresentValue)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nPV explicit: %.4f\nPV terminal: %.4f\nIntrinsic PE: %.4f\n",
		rep.PVExplicit, rep.PVTerminal, rep.IntrinsicPE)
}
