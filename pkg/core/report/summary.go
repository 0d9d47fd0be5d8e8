// Package report turns valuation results into what the dashboard shows:
// a report struct, a markdown/HTML summary and an SVG gauge.
package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"reverse_dcf/pkg/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// SafeFormat prints a metric with the given precision, or "N/A" when absent
func SafeFormat(v *float64, decimals int) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

// MetricsSummary is the markdown block shown after a lookup
func MetricsSummary(m *models.CompanyMetrics) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### Company Data\n\n")
	fmt.Fprintf(&sb, "- Stock Symbol: **%s**\n", m.Symbol)
	fmt.Fprintf(&sb, "- Current PE: %s\n", SafeFormat(m.CurrentPE, 1))
	fmt.Fprintf(&sb, "- FY23 PE: %s\n", SafeFormat(m.ReferencePE, 1))
	roce := SafeFormat(m.ROCE, 1)
	if m.ROCE != nil {
		roce += "%"
	}
	fmt.Fprintf(&sb, "- 5-yr median pre-tax RoCE: %s\n", roce)
	return sb.String()
}

// Summary is the markdown block shown after a calculation
func Summary(r *models.ValuationReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### Valuation\n\n")
	fmt.Fprintf(&sb, "The calculated intrinsic PE is: **%s**\n\n", SafeFormat(&r.IntrinsicPE, 2))

	switch {
	case r.Verdict != "":
		fmt.Fprintf(&sb, "The stock is **%s** based on the calculated intrinsic PE (current PE %s).\n\n",
			r.Verdict, SafeFormat(r.CurrentPE, 1))
	case r.VerdictSkipped != "":
		fmt.Fprintf(&sb, "_No over/undervalued verdict: %s._\n\n", r.VerdictSkipped)
	}

	in := r.Inputs
	sb.WriteString("| Input | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Cost of Capital | %.1f%% |\n", in.CostOfCapital)
	fmt.Fprintf(&sb, "| RoCE | %.1f%% |\n", in.ROCE)
	fmt.Fprintf(&sb, "| Growth Rate | %.1f%% |\n", in.GrowthRate)
	fmt.Fprintf(&sb, "| High Growth Period | %d years |\n", in.HighGrowthPeriod)
	fmt.Fprintf(&sb, "| Fade Period | %d years |\n", in.FadePeriod)
	fmt.Fprintf(&sb, "| Terminal Growth Rate | %.1f%% |\n", in.TerminalGrowth)
	return sb.String()
}

// RenderHTML converts summary markdown to an HTML fragment
func RenderHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
