package fundamentals

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/models"
)

// thresholdColumns must exist in every screened file.
var thresholdColumns = []string{models.ColSymbol, models.ColROE, models.ColGrossMargin, models.ColNetProfit}

// yearScreen is one file's qualifying rows, already projected.
type yearScreen struct {
	period  string
	rows    []models.Record
	symbols map[string]bool
}

// Qualifies reports whether a record meets all three thresholds. Net profit must strictly
// exceed its threshold; missing or non-numeric values never qualify.
func Qualifies(r models.Record, c models.ScreenCriteria) bool {
	roe := r.Float(models.ColROE)
	margin := r.Float(models.ColGrossMargin)
	profit := r.Float(models.ColNetProfit)
	if !roe.Valid || !margin.Valid || !profit.Valid {
		return false
	}
	return roe.Float64 >= c.MinROE &&
		margin.Float64 >= c.MinGrossMargin &&
		profit.Float64 > c.MinNetProfit
}

// FilterStocks screens every fundamentals file present and keeps only companies that
// qualify in each of them. Each surviving company appears once, as its most recent row.
func (s *Service) FilterStocks(ctx context.Context, criteria models.ScreenCriteria) (*models.ScreeningResult, error) {
	paths, err := s.store.Discover(ctx)
	if err != nil {
		return nil, err
	}

	screens := make([]yearScreen, 0, len(paths))
	var errs []error
	for _, path := range paths {
		ys, err := s.screenFile(ctx, path, criteria)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Error().Err(err).Str("file", path).Msg("Failed to screen fundamentals file")
			errs = append(errs, err)
			continue
		}
		screens = append(screens, ys)
	}
	if len(errs) > 0 {
		return nil, &common.Error{
			Kind: common.KindParse,
			Op:   "screen fundamentals",
			Msg:  fmt.Sprintf("failed to read %d of %d fundamentals files", len(errs), len(paths)),
			Err:  errors.Join(errs...),
		}
	}

	survivors := intersect(screens)

	// Newest file first so the kept row for each symbol is its latest year.
	data := make([]models.Record, 0, len(survivors))
	taken := make(map[string]bool, len(survivors))
	for i := len(screens) - 1; i >= 0; i-- {
		for _, r := range screens[i].rows {
			sym := symbolOf(r)
			if !survivors[sym] || taken[sym] {
				continue
			}
			taken[sym] = true
			data = append(data, r)
		}
	}

	s.logger.Info().
		Float64("roe", criteria.MinROE).
		Float64("gross_margin", criteria.MinGrossMargin).
		Float64("net_profit", criteria.MinNetProfit).
		Int("files", len(screens)).
		Int("matches", len(data)).
		Msg("Fundamentals screened")

	return &models.ScreeningResult{Columns: models.ScreenColumns, Data: data}, nil
}

func (s *Service) screenFile(ctx context.Context, path string, criteria models.ScreenCriteria) (yearScreen, error) {
	sheet, err := s.store.LoadSheet(ctx, path)
	if err != nil {
		return yearScreen{}, err
	}
	for _, col := range thresholdColumns {
		if !sheet.HasColumn(col) {
			return yearScreen{}, common.ParseError(filepath.Base(path), fmt.Errorf("missing column %s", col))
		}
	}

	ys := yearScreen{period: sheet.Period, symbols: make(map[string]bool)}
	for _, r := range sheet.Records {
		if symbolOf(r) == "" || !Qualifies(r, criteria) {
			continue
		}
		ys.rows = append(ys.rows, r.Project(models.ScreenColumns))
		ys.symbols[symbolOf(r)] = true
	}

	s.logger.Debug().Str("period", ys.period).Int("qualified", len(ys.rows)).Msg("Fundamentals file screened")
	return ys, nil
}

// intersect returns the symbols present in every screen; empty when any screen is empty.
func intersect(screens []yearScreen) map[string]bool {
	if len(screens) == 0 {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(screens[0].symbols))
	for sym := range screens[0].symbols {
		out[sym] = true
	}
	for _, ys := range screens[1:] {
		for sym := range out {
			if !ys.symbols[sym] {
				delete(out, sym)
			}
		}
	}
	return out
}

func symbolOf(r models.Record) string {
	return strings.TrimSpace(r.Text(models.ColSymbol))
}
