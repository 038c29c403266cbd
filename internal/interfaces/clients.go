// Package interfaces defines service contracts for cnstock
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/cnstock/internal/models"
)

// MarketDataClient provides access to the upstream market-data provider
type MarketDataClient interface {
	// GetDailyHistory retrieves unadjusted daily bars for symbol within [from, to], ascending by date
	GetDailyHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyBar, error)

	// GetCompanyFacts retrieves the current company information items keyed by display name
	// (总股本, 流通股, 总市值, 流通市值) in raw units. Items the provider did not report are absent.
	GetCompanyFacts(ctx context.Context, symbol string) (map[string]float64, error)
}
