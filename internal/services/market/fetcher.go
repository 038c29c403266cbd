package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/interfaces"
	"github.com/bobmcallan/cnstock/internal/models"
)

const dateParamLayout = "20060102"

var (
	hundredMillion = decimal.New(1, 8)
	oneMillion     = decimal.New(1, 6)
)

// Fetcher retrieves daily history and company facts for one symbol and derives the
// per-day market cap.
type Fetcher struct {
	client  interfaces.MarketDataClient
	symbols interfaces.SymbolDirectory
	logger  *common.Logger
}

// NewFetcher creates a history fetcher
func NewFetcher(client interfaces.MarketDataClient, symbols interfaces.SymbolDirectory, logger *common.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		symbols: symbols,
		logger:  logger,
	}
}

// ParseDate validates an 8-digit YYYYMMDD parameter.
func ParseDate(field, value string) (time.Time, error) {
	if len(value) != 8 {
		return time.Time{}, common.ValidationError(field, "%s must be an 8-digit date (YYYYMMDD), got %q", field, value)
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return time.Time{}, common.ValidationError(field, "%s must be an 8-digit date (YYYYMMDD), got %q", field, value)
		}
	}
	t, err := time.Parse(dateParamLayout, value)
	if err != nil {
		return time.Time{}, common.ValidationError(field, "%s is not a calendar date: %q", field, value)
	}
	return t, nil
}

// Fetch resolves the display name, then loads history and facts concurrently.
// Any provider failure is an UpstreamFetch error; there is no retry.
func (f *Fetcher) Fetch(ctx context.Context, symbol, startDate, endDate string) (*models.StockHistory, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, common.ValidationError("symbol", "symbol is required")
	}
	from, err := ParseDate("start_date", startDate)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate("end_date", endDate)
	if err != nil {
		return nil, err
	}

	name, ok := f.symbols.Name(symbol)
	if !ok {
		f.logger.Debug().Str("symbol", symbol).Msg("Symbol not in directory")
		name = models.UnknownSecurityName
	}

	var (
		bars  []models.DailyBar
		items map[string]float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bars, err = f.client.GetDailyHistory(gctx, symbol, from, to)
		if err != nil {
			return common.UpstreamError("fetch history", symbol, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = f.client.GetCompanyFacts(gctx, symbol)
		if err != nil {
			return common.UpstreamError("fetch company facts", symbol, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		f.logger.Error().Err(err).Str("symbol", symbol).Msg("Upstream fetch failed")
		return nil, err
	}

	facts, price, err := deriveFacts(items)
	if err != nil {
		return nil, common.UpstreamError("derive company facts", symbol, err)
	}

	inRange := make([]models.DailyBar, 0, len(bars))
	for _, b := range bars {
		day := b.Date.Truncate(24 * time.Hour)
		if day.Before(from) || day.After(to) {
			continue
		}
		b.MarketCap = MarketCap(b.Amount, b.TurnoverRate)
		inRange = append(inRange, b)
	}

	f.logger.Info().
		Str("symbol", symbol).
		Str("name", name).
		Int("bars", len(inRange)).
		Msg("Stock history fetched")

	return &models.StockHistory{
		Symbol:       symbol,
		Name:         name,
		Bars:         inRange,
		Facts:        facts,
		CurrentPrice: price,
	}, nil
}

// deriveFacts converts 总股本, 流通股 and 总市值 to units of 100 million and computes
// the current price as 总市值 / 总股本.
func deriveFacts(items map[string]float64) (models.CompanyFacts, float64, error) {
	var vals [3]float64
	for i, key := range []string{models.FactTotalShares, models.FactFloatShares, models.FactTotalMarketValue} {
		v, ok := items[key]
		if !ok {
			return models.CompanyFacts{}, 0, fmt.Errorf("company fact %s is missing", key)
		}
		vals[i] = decimal.NewFromFloat(v).Div(hundredMillion).InexactFloat64()
	}

	facts := models.CompanyFacts{
		TotalShares:      vals[0],
		FloatShares:      vals[1],
		TotalMarketValue: vals[2],
	}
	if facts.TotalShares == 0 {
		return models.CompanyFacts{}, 0, fmt.Errorf("total shares is zero")
	}
	return facts, facts.TotalMarketValue / facts.TotalShares, nil
}

// MarketCap back-calculates the day's market value in units of 100 million:
// round(amount / turnover / 1e6, 2). Undefined unless turnover is positive.
func MarketCap(amount float64, turnover null.Float) null.Float {
	if !turnover.Valid || turnover.Float64 <= 0 {
		return null.Float{}
	}
	v := decimal.NewFromFloat(amount).
		Div(decimal.NewFromFloat(turnover.Float64)).
		Div(oneMillion).
		Round(2)
	return null.FloatFrom(v.InexactFloat64())
}
