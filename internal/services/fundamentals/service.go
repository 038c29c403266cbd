// Package fundamentals joins per-year fundamentals for one company and screens the corpus
package fundamentals

import (
	"context"
	"strings"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/interfaces"
	"github.com/bobmcallan/cnstock/internal/models"
)

// Service implements FundamentalsService
type Service struct {
	store  interfaces.FundamentalsStore
	logger *common.Logger
}

// NewService creates a new fundamentals service
func NewService(store interfaces.FundamentalsStore, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// GetFinancialReport returns one row per fiscal year found for symbol, in file order,
// restricted to the report columns present in the source files.
func (s *Service) GetFinancialReport(ctx context.Context, symbol string) (*models.FinancialReport, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, common.NotFoundError("find fundamentals", "no fundamentals data found for an empty symbol")
	}

	rows, err := s.store.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	columns := presentColumns(rows, models.ReportColumns)
	table := make([]models.Record, len(rows))
	for i, r := range rows {
		table[i] = r.Project(columns)
	}

	s.logger.Info().Str("symbol", symbol).Int("years", len(table)).Msg("Financial report joined")
	return &models.FinancialReport{Table: table, Columns: columns}, nil
}

// presentColumns keeps the wanted columns that appear in at least one row, in wanted order.
func presentColumns(rows []models.Record, wanted []string) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, c := range r.Columns() {
			seen[c] = true
		}
	}
	cols := make([]string, 0, len(wanted))
	for _, c := range wanted {
		if seen[c] {
			cols = append(cols, c)
		}
	}
	return cols
}
