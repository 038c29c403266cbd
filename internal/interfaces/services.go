package interfaces

import (
	"context"

	"github.com/bobmcallan/cnstock/internal/models"
)

// StockDataRequest holds validated /get_stock_data parameters
type StockDataRequest struct {
	Symbol     string
	StartDate  string // YYYYMMDD
	EndDate    string // YYYYMMDD
	SortColumn string
	SortOrder  string // "asc" or "desc"
}

// MarketService drives history fetching, ranking and turnover analysis
type MarketService interface {
	// GetStockData fetches history and facts, ranks the bars and renders the turnover histogram
	GetStockData(ctx context.Context, req StockDataRequest) (*models.StockReport, error)
}

// FundamentalsService joins and screens the fundamentals corpus
type FundamentalsService interface {
	// GetFinancialReport joins one symbol's rows across every available fiscal year
	GetFinancialReport(ctx context.Context, symbol string) (*models.FinancialReport, error)

	// FilterStocks returns companies meeting the criteria in every fiscal year present
	FilterStocks(ctx context.Context, criteria models.ScreenCriteria) (*models.ScreeningResult, error)
}

// ChartRenderer renders a turnover histogram to PNG
type ChartRenderer interface {
	RenderTurnoverHistogram(ctx context.Context, title string, logValues []float64, bands models.TurnoverBands) ([]byte, error)
}
