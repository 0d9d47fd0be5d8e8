package ingest

import (
	"io"
	"math"
	"strconv"
	"strings"

	"reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/models"

	"github.com/PuerkitoBio/goquery"
)

// ParseMetrics extracts the valuation ratios from a metrics page.
//
// Each metric is an <li> carrying a caption and a <span class="number"> value.
// The caption is either a .name child or the li's own text:
//
//	<li><span class="name">Stock P/E</span><span class="value"><span class="number">75.4</span></span></li>
//	<li>FY23PE <span class="number">68.1</span></li>
//
// Metrics that are missing or unparsable stay nil.
func ParseMetrics(r io.Reader, labels config.MetricLabels) (*models.CompanyMetrics, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64)
	doc.Find("li").Each(func(i int, li *goquery.Selection) {
		num := li.Find(".number").First()
		if num.Length() == 0 {
			return
		}
		label := normalizeLabel(itemLabel(li))
		if label == "" {
			return
		}
		if _, seen := values[label]; seen {
			return
		}
		if v, ok := parseNumber(num.Text()); ok {
			values[label] = v
		}
	})

	lookup := func(caption string) *float64 {
		if caption == "" {
			return nil
		}
		if v, ok := values[normalizeLabel(caption)]; ok {
			return &v
		}
		return nil
	}

	m := &models.CompanyMetrics{
		CurrentPE:   lookup(labels.CurrentPE),
		ReferencePE: lookup(labels.ReferencePE),
		ROCE:        lookup(labels.ROCE),
	}

	// Derive the reference P/E from market cap and net profit when it is not
	// quoted directly. Both are published in the same unit (crore).
	if m.ReferencePE == nil {
		mcap, profit := lookup(labels.MarketCap), lookup(labels.NetProfit)
		if mcap != nil && profit != nil && *profit != 0 {
			pe := *mcap / *profit
			m.ReferencePE = &pe
		}
	}

	return m, nil
}

// itemLabel returns the caption of a metric list item
func itemLabel(li *goquery.Selection) string {
	if name := li.Find(".name").First(); name.Length() > 0 {
		return name.Text()
	}

	var sb strings.Builder
	li.Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			sb.WriteString(s.Text())
		}
	})
	return sb.String()
}

func normalizeLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSuffix(s, ":")
	return strings.ToLower(strings.TrimSpace(s))
}

// parseNumber accepts values such as "1,234.5", "23.4 %", "₹ 2,45,678"
func parseNumber(s string) (float64, bool) {
	cleaned := strings.NewReplacer(",", "", "%", "", "\u20b9", "", " ", "", "\u00a0", "").Replace(s)
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "Cr.")
	cleaned = strings.TrimSuffix(cleaned, "Cr")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
