package market

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/interfaces"
	"github.com/bobmcallan/cnstock/internal/models"
)

// BandMultipliers are the σ offsets of the five turnover bands.
var BandMultipliers = [5]float64{-2, -1, 0, 1, 2}

// Analyzer computes the log-turnover distribution of a history and renders it.
type Analyzer struct {
	renderer interfaces.ChartRenderer
	sem      *semaphore.Weighted
	logger   *common.Logger
}

// NewAnalyzer creates a turnover analyzer allowing at most maxConcurrent renders at once.
func NewAnalyzer(renderer interfaces.ChartRenderer, maxConcurrent int, logger *common.Logger) *Analyzer {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Analyzer{
		renderer: renderer,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		logger:   logger,
	}
}

// HistogramTitle is the chart title for a security.
func HistogramTitle(name string) string {
	return name + " 对数换手率的频数直方图"
}

// LogTurnover returns ln(turnover) for every bar with a positive turnover rate.
func LogTurnover(bars []models.DailyBar) []float64 {
	logs := make([]float64, 0, len(bars))
	for _, b := range bars {
		if !b.TurnoverRate.Valid {
			continue
		}
		t := b.TurnoverRate.Float64
		if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			continue
		}
		logs = append(logs, math.Log(t))
	}
	return logs
}

// ComputeBands returns the mean, sample standard deviation and μ+kσ bounds of logValues.
// Returns nil for an empty input. A single value has σ = 0.
func ComputeBands(logValues []float64) *models.TurnoverBands {
	n := len(logValues)
	if n == 0 {
		return nil
	}

	var sum float64
	for _, v := range logValues {
		sum += v
	}
	mean := sum / float64(n)

	var std float64
	if n > 1 {
		var sq float64
		for _, v := range logValues {
			d := v - mean
			sq += d * d
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	bands := &models.TurnoverBands{Mean: mean, StdDev: std, Samples: n}
	for i, k := range BandMultipliers {
		bound := mean + k*std
		bands.LogBounds[i] = bound
		bands.Percentages[i] = decimal.NewFromFloat(math.Exp(bound)).Round(2).InexactFloat64()
	}
	return bands
}

// Analyze returns the histogram for bars, or nil when no positive turnover exists
// or rendering fails. Neither case is an error to the caller.
func (a *Analyzer) Analyze(ctx context.Context, name string, bars []models.DailyBar) *models.HistogramResult {
	logs := LogTurnover(bars)
	bands := ComputeBands(logs)
	if bands == nil {
		a.logger.Warn().Str("name", name).Msg("No positive turnover data for histogram")
		return nil
	}

	img, err := a.render(ctx, name, logs, *bands)
	if err != nil {
		a.logger.Warn().Err(err).Str("name", name).Msg("Turnover histogram unavailable")
		return nil
	}
	return &models.HistogramResult{Image: img, Bands: *bands}
}

func (a *Analyzer) render(ctx context.Context, name string, logs []float64, bands models.TurnoverBands) (img []byte, err error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, common.RenderingError("wait for renderer", err)
	}
	defer a.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			img, err = nil, common.RenderingError("render turnover histogram", fmt.Errorf("panic: %v", r))
		}
	}()

	img, err = a.renderer.RenderTurnoverHistogram(ctx, HistogramTitle(name), logs, bands)
	if err != nil {
		return nil, common.RenderingError("render turnover histogram", err)
	}
	if len(img) == 0 {
		return nil, common.RenderingError("render turnover histogram", fmt.Errorf("empty image"))
	}
	return img, nil
}
