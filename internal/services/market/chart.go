package market

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/models"
)

// ChartRenderer draws turnover histograms with go-chart. Each call builds its own
// chart value, so renders share no state.
type ChartRenderer struct {
	width  int
	height int
	bins   int
	font   *truetype.Font
}

// NewChartRenderer creates a renderer. When cfg.FontPath is set the font must parse;
// without it labels use go-chart's default font, which has no CJK glyphs.
func NewChartRenderer(cfg common.ChartConfig) (*ChartRenderer, error) {
	r := &ChartRenderer{
		width:  cfg.Width,
		height: cfg.Height,
		bins:   cfg.Bins,
	}
	if r.width <= 0 {
		r.width = 1200
	}
	if r.height <= 0 {
		r.height = 600
	}
	if r.bins <= 0 {
		r.bins = 30
	}

	if cfg.FontPath != "" {
		data, err := os.ReadFile(cfg.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read chart font: %w", err)
		}
		font, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse chart font %s: %w", cfg.FontPath, err)
		}
		r.font = font
	}
	return r, nil
}

// HistogramBins counts values into n equal-width bins over [min, max]; the last bin is closed.
// Equal min and max widen the range by 0.5 on each side. Returns n+1 edges and n counts.
func HistogramBins(values []float64, n int) ([]float64, []float64) {
	if len(values) == 0 || n <= 0 {
		return nil, nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(n)
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi

	counts := make([]float64, n)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}
	return edges, counts
}

// RenderTurnoverHistogram renders the frequency histogram of logValues with a dashed
// marker and label at each band bound. Returns raw PNG bytes.
func (r *ChartRenderer) RenderTurnoverHistogram(ctx context.Context, title string, logValues []float64, bands models.TurnoverBands) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(logValues) == 0 {
		return nil, fmt.Errorf("no values to plot")
	}

	edges, counts := HistogramBins(logValues, r.bins)
	centers := make([]float64, len(counts))
	maxCount := 0.0
	for i := range counts {
		centers[i] = (edges[i] + edges[i+1]) / 2
		maxCount = math.Max(maxCount, counts[i])
	}
	yMax := maxCount * 1.1

	xMin := math.Min(edges[0], bands.LogBounds[0])
	xMax := math.Max(edges[len(edges)-1], bands.LogBounds[4])
	pad := (xMax - xMin) * 0.03
	if pad == 0 {
		pad = 0.5
	}

	series := []chart.Series{
		chart.HistogramSeries{
			Name: "频数",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				StrokeWidth: 1,
				FillColor:   drawing.ColorFromHex("87ceeb").WithAlpha(180), // skyblue
			},
			InnerSeries: chart.ContinuousSeries{
				XValues: centers,
				YValues: counts,
			},
		},
	}

	markerStyle := chart.Style{
		StrokeColor:     drawing.ColorFromHex("008000"),
		StrokeWidth:     1,
		StrokeDashArray: []float64{5.0, 3.0},
	}
	annotations := make([]chart.Value2, 0, len(bands.LogBounds))
	for i, x := range bands.LogBounds {
		series = append(series, chart.ContinuousSeries{
			Style:   markerStyle,
			XValues: []float64{x, x},
			YValues: []float64{0, yMax},
		})
		annotations = append(annotations, chart.Value2{
			XValue: x,
			YValue: yMax * 0.8,
			Label:  fmt.Sprintf("ln(x)=%.2f 换手率≈%.2f%%", x, bands.Percentages[i]),
		})
	}
	series = append(series, chart.AnnotationSeries{
		Style: chart.Style{
			FontColor:   drawing.ColorFromHex("008000"),
			FontSize:    9,
			StrokeColor: drawing.ColorFromHex("008000"),
		},
		Annotations: annotations,
	})

	gridStyle := chart.Style{
		StrokeColor: drawing.ColorFromHex("e5e7eb"),
		StrokeWidth: 1,
	}

	graph := chart.Chart{
		Title:  title,
		Width:  r.width,
		Height: r.height,
		Font:   r.font,
		TitleStyle: chart.Style{
			FontSize: 14,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:           "对数换手率 ln(换手率)",
			Range:          &chart.ContinuousRange{Min: xMin - pad, Max: xMax + pad},
			GridMajorStyle: gridStyle,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name:           "出现次数",
			Range:          &chart.ContinuousRange{Min: 0, Max: yMax},
			GridMajorStyle: gridStyle,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
