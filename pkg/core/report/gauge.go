package report

import (
	"fmt"
	"math"

	"reverse_dcf/pkg/core/config"

	"github.com/beevik/etree"
)

const (
	gaugeWidth  = 300.0
	gaugeHeight = 200.0
	gaugeCX     = 150.0
	gaugeCY     = 160.0
	gaugeOuter  = 120.0
	gaugeInner  = 85.0
)

// Gauge renders the intrinsic P/E as a semicircular SVG gauge.
// Values outside [0, cfg.Max] are pinned to the nearest end of the axis; the
// printed number is always the real value.
func Gauge(value float64, cfg config.GaugeConfig) ([]byte, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("gauge value must be finite, got %v", value)
	}
	if cfg.Max <= 0 {
		return nil, fmt.Errorf("gauge max must be positive, got %g", cfg.Max)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	svg.CreateAttr("width", num(gaugeWidth))
	svg.CreateAttr("height", num(gaugeHeight))
	svg.CreateAttr("viewBox", fmt.Sprintf("0 0 %s %s", num(gaugeWidth), num(gaugeHeight)))

	title := svg.CreateElement("text")
	title.CreateAttr("class", "title")
	title.CreateAttr("x", num(gaugeCX))
	title.CreateAttr("y", "24")
	title.CreateAttr("text-anchor", "middle")
	title.CreateAttr("font-size", "16")
	title.SetText(cfg.Title)

	// background track
	track := svg.CreateElement("path")
	track.CreateAttr("class", "track")
	track.CreateAttr("d", arcPath(0, 1))
	track.CreateAttr("fill", colorOr(cfg.BgColor, "lightgrey"))

	for _, b := range cfg.Bands {
		from, to := clampFrac(b.From/cfg.Max), clampFrac(b.To/cfg.Max)
		if to <= from {
			continue
		}
		band := svg.CreateElement("path")
		band.CreateAttr("class", "band")
		band.CreateAttr("d", arcPath(from, to))
		band.CreateAttr("fill", b.Color)
	}

	// value bar along the inner edge
	frac := clampFrac(value / cfg.Max)
	if frac > 0 {
		bar := svg.CreateElement("path")
		bar.CreateAttr("class", "bar")
		bar.CreateAttr("d", barPath(frac))
		bar.CreateAttr("fill", colorOr(cfg.BarColor, "cyan"))
	}

	needle := svg.CreateElement("line")
	needle.CreateAttr("class", "needle")
	x, y := polar(frac, gaugeOuter)
	needle.CreateAttr("x1", num(gaugeCX))
	needle.CreateAttr("y1", num(gaugeCY))
	needle.CreateAttr("x2", num(x))
	needle.CreateAttr("y2", num(y))
	needle.CreateAttr("stroke", "black")
	needle.CreateAttr("stroke-width", "2")

	for _, tick := range []float64{0, cfg.Max} {
		tx, ty := polar(tick/cfg.Max, gaugeOuter+12)
		label := svg.CreateElement("text")
		label.CreateAttr("class", "tick")
		label.CreateAttr("x", num(tx))
		label.CreateAttr("y", num(ty+4))
		label.CreateAttr("text-anchor", "middle")
		label.CreateAttr("font-size", "10")
		label.SetText(fmt.Sprintf("%g", tick))
	}

	reading := svg.CreateElement("text")
	reading.CreateAttr("class", "value")
	reading.CreateAttr("x", num(gaugeCX))
	reading.CreateAttr("y", num(gaugeCY+30))
	reading.CreateAttr("text-anchor", "middle")
	reading.CreateAttr("font-size", "22")
	reading.SetText(fmt.Sprintf("%.2f", value))

	doc.Indent(2)
	return doc.WriteToBytes()
}

// polar maps a fraction of the axis to a point on the upper semicircle
func polar(frac, radius float64) (float64, float64) {
	angle := math.Pi * (1 - frac)
	return gaugeCX + radius*math.Cos(angle), gaugeCY - radius*math.Sin(angle)
}

// arcPath draws the annular sector between two axis fractions
func arcPath(from, to float64) string {
	return sector(from, to, gaugeInner, gaugeOuter)
}

func barPath(frac float64) string {
	return sector(0, frac, gaugeInner-12, gaugeInner-2)
}

func sector(from, to, inner, outer float64) string {
	ox1, oy1 := polar(from, outer)
	ox2, oy2 := polar(to, outer)
	ix2, iy2 := polar(to, inner)
	ix1, iy1 := polar(from, inner)
	return fmt.Sprintf("M %s %s A %s %s 0 0 1 %s %s L %s %s A %s %s 0 0 0 %s %s Z",
		num(ox1), num(oy1), num(outer), num(outer), num(ox2), num(oy2),
		num(ix2), num(iy2), num(inner), num(inner), num(ix1), num(iy1))
}

func clampFrac(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func colorOr(c, fallback string) string {
	if c == "" {
		return fallback
	}
	return c
}

func num(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
