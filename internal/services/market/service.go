// Package market serves stock history with derived market cap, ranking and turnover analysis
package market

import (
	"context"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/interfaces"
	"github.com/bobmcallan/cnstock/internal/models"
)

// Service implements MarketService
type Service struct {
	fetcher  *Fetcher
	analyzer *Analyzer
	logger   *common.Logger
}

// NewService creates a new market service
func NewService(
	client interfaces.MarketDataClient,
	symbols interfaces.SymbolDirectory,
	renderer interfaces.ChartRenderer,
	maxConcurrentRenders int,
	logger *common.Logger,
) *Service {
	return &Service{
		fetcher:  NewFetcher(client, symbols, logger),
		analyzer: NewAnalyzer(renderer, maxConcurrentRenders, logger),
		logger:   logger,
	}
}

// GetStockData fetches the history, ranks it and renders the turnover histogram.
// The histogram is omitted, not failed, when there is no usable turnover or rendering fails.
func (s *Service) GetStockData(ctx context.Context, req interfaces.StockDataRequest) (*models.StockReport, error) {
	column, order, err := NormalizeSort(req.SortColumn, req.SortOrder)
	if err != nil {
		return nil, err
	}

	history, err := s.fetcher.Fetch(ctx, req.Symbol, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	ranked, err := Rank(history.Bars, column, order, TableLimit)
	if err != nil {
		return nil, err
	}

	report := &models.StockReport{
		Shape:        [2]int{len(history.Bars), len(models.HistoryColumns)},
		Table:        ranked.Table,
		StockName:    history.Name,
		MaxMarketCap: ranked.Max,
		MinMarketCap: ranked.Min,
		FilteredDict: history.Facts.Map(),
		CurrentPrice: history.CurrentPrice,
	}

	if hist := s.analyzer.Analyze(ctx, history.Name, history.Bars); hist != nil {
		report.HistogramImage = hist.Image
		bands := hist.Bands
		report.TurnoverBands = &bands
	}

	s.logger.Info().
		Str("symbol", history.Symbol).
		Str("sort_column", column).
		Str("sort_order", order).
		Int("rows", len(report.Table)).
		Bool("histogram", report.HistogramImage != nil).
		Msg("Stock data assembled")

	return report, nil
}
