package market

import (
	"sort"
	"strings"

	"github.com/guregu/null/v6"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/models"
)

// TableLimit caps the ranked history table.
const TableLimit = 50

// Sort defaults for /get_stock_data.
const (
	DefaultSortColumn = models.ColTurnover
	DefaultSortOrder  = "desc"
)

// sortKeys maps each sortable column to its value; null values sort last in either order.
var sortKeys = map[string]func(models.DailyBar) null.Float{
	models.ColDate:      func(b models.DailyBar) null.Float { return null.FloatFrom(float64(b.Date.Unix())) },
	models.ColOpen:      func(b models.DailyBar) null.Float { return null.FloatFrom(b.Open) },
	models.ColClose:     func(b models.DailyBar) null.Float { return null.FloatFrom(b.Close) },
	models.ColHigh:      func(b models.DailyBar) null.Float { return null.FloatFrom(b.High) },
	models.ColLow:       func(b models.DailyBar) null.Float { return null.FloatFrom(b.Low) },
	models.ColVolume:    func(b models.DailyBar) null.Float { return null.FloatFrom(float64(b.Volume)) },
	models.ColAmount:    func(b models.DailyBar) null.Float { return null.FloatFrom(b.Amount) },
	models.ColAmplitude: func(b models.DailyBar) null.Float { return null.FloatFrom(b.Amplitude) },
	models.ColPctChange: func(b models.DailyBar) null.Float { return null.FloatFrom(b.PctChange) },
	models.ColChange:    func(b models.DailyBar) null.Float { return null.FloatFrom(b.Change) },
	models.ColTurnover:  func(b models.DailyBar) null.Float { return b.TurnoverRate },
	models.ColMarketCap: func(b models.DailyBar) null.Float { return b.MarketCap },
}

// SortColumns lists the accepted sort_column values.
func SortColumns() []string {
	cols := make([]string, 0, len(sortKeys))
	for _, c := range models.HistoryColumns {
		if _, ok := sortKeys[c]; ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// NormalizeSort applies defaults and rejects unknown columns or orders.
func NormalizeSort(column, order string) (string, string, error) {
	column = strings.TrimSpace(column)
	if column == "" {
		column = DefaultSortColumn
	}
	if _, ok := sortKeys[column]; !ok {
		return "", "", common.ValidationError("sort_column", "unsupported sort_column %q (accepted: %s)", column, strings.Join(SortColumns(), ", "))
	}

	order = strings.ToLower(strings.TrimSpace(order))
	if order == "" {
		order = DefaultSortOrder
	}
	if order != "asc" && order != "desc" {
		return "", "", common.ValidationError("sort_order", "sort_order must be asc or desc, got %q", order)
	}
	return column, order, nil
}

// Rank finds the market-cap extremes over the whole history, then sorts by column,
// keeps the first limit rows and returns them ascending by date.
// Extremes are nil when no bar has a market cap.
func Rank(bars []models.DailyBar, column, order string, limit int) (*models.RankedHistory, error) {
	column, order, err := NormalizeSort(column, order)
	if err != nil {
		return nil, err
	}

	result := &models.RankedHistory{}
	result.Max, result.Min = marketCapExtremes(bars)

	key := sortKeys[column]
	desc := order == "desc"
	sorted := make([]models.DailyBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := key(sorted[i]), key(sorted[j])
		switch {
		case !a.Valid:
			return false
		case !b.Valid:
			return true
		case desc:
			return a.Float64 > b.Float64
		default:
			return a.Float64 < b.Float64
		}
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	result.Table = sorted
	return result, nil
}

// marketCapExtremes returns the first bar holding the maximum and the first holding the minimum market cap.
func marketCapExtremes(bars []models.DailyBar) (hi, lo *models.MarketCapPoint) {
	for _, b := range bars {
		if !b.MarketCap.Valid {
			continue
		}
		v := b.MarketCap.Float64
		if hi == nil || v > hi.Value {
			hi = &models.MarketCapPoint{Date: b.DateLabel(), Value: v}
		}
		if lo == nil || v < lo.Value {
			lo = &models.MarketCapPoint{Date: b.DateLabel(), Value: v}
		}
	}
	return hi, lo
}
