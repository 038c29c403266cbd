// Package fundamentalsfs implements the fundamentals repository over per-fiscal-year CSV files.
package fundamentalsfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/models"
)

// Store reads fundamentals files named <prefix><year>1231.csv from one directory.
// Every call re-reads from disk; nothing is cached between requests.
type Store struct {
	dir    string
	prefix string
	years  []int
	logger *common.Logger
}

// NewStore opens the fundamentals directory. A missing directory is an error.
func NewStore(logger *common.Logger, dir, prefix string, years []int) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("fundamentals directory does not exist: %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fundamentals path is not a directory: %s", dir)
	}

	logger.Info().Str("path", dir).Ints("years", years).Msg("Fundamentals store opened")
	return &Store{
		dir:    dir,
		prefix: prefix,
		years:  years,
		logger: logger,
	}, nil
}

// Dir returns the fundamentals directory.
func (s *Store) Dir() string {
	return s.dir
}

// YearFile returns the expected path of a fiscal year's file.
func (s *Store) YearFile(year int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d1231.csv", s.prefix, year))
}

// PeriodFromPath derives the reporting period from a file name: 业绩报表_20231231.csv -> 20231231.
func (s *Store) PeriodFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if s.prefix != "" && strings.HasPrefix(base, s.prefix) {
		return strings.TrimPrefix(base, s.prefix)
	}
	if idx := strings.Index(base, "_"); idx >= 0 {
		rest := base[idx+1:]
		if j := strings.Index(rest, "_"); j >= 0 {
			rest = rest[:j]
		}
		return rest
	}
	return base
}

// FindBySymbol scans each expected year file and returns the rows whose symbol matches,
// tagged with 报告期. Missing files are skipped; an unreadable file fails the call.
func (s *Store) FindBySymbol(ctx context.Context, symbol string) ([]models.Record, error) {
	symbol = strings.TrimSpace(symbol)
	var results []models.Record

	for _, year := range s.years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := s.YearFile(year)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			s.logger.Warn().Str("file", path).Msg("Fundamentals file does not exist")
			continue
		}

		sheet, err := s.LoadSheet(ctx, path)
		if err != nil {
			s.logger.Error().Err(err).Str("file", path).Msg("Failed to read fundamentals file")
			return nil, err
		}
		if !sheet.HasColumn(models.ColSymbol) {
			s.logger.Warn().Str("file", path).Msg("Fundamentals file has no symbol column")
			continue
		}

		for _, rec := range sheet.Records {
			if strings.TrimSpace(rec.Text(models.ColSymbol)) == symbol {
				results = append(results, rec.With(models.ColReportPeriod, sheet.Period))
			}
		}
	}

	if len(results) == 0 {
		err := common.NotFoundError("find fundamentals", "no fundamentals data found for symbol %s", symbol)
		err.Symbol = symbol
		return nil, err
	}
	return results, nil
}

// Discover lists every <prefix>*.csv file in the directory, ordered by reporting period.
// Finding none is a NotFound error.
func (s *Store) Discover(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(s.dir, s.prefix+"*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list fundamentals files: %w", err)
	}
	if len(paths) == 0 {
		return nil, common.NotFoundError("discover fundamentals", "no fundamentals files found in %s", s.dir)
	}

	sort.SliceStable(paths, func(i, j int) bool {
		pi, pj := s.PeriodFromPath(paths[i]), s.PeriodFromPath(paths[j])
		if pi != pj {
			return pi < pj
		}
		return paths[i] < paths[j]
	})
	return paths, nil
}

// LoadSheet reads one fundamentals file fully. Read and decode failures are Parse errors naming the file.
func (s *Store) LoadSheet(ctx context.Context, path string) (*models.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, common.ParseError(filepath.Base(path), err)
	}
	defer f.Close()

	columns, records, err := readSheet(f)
	if err != nil {
		return nil, common.ParseError(filepath.Base(path), err)
	}

	s.logger.Debug().Str("file", path).Int("rows", len(records)).Msg("Fundamentals file loaded")
	return &models.Sheet{
		Path:    path,
		Period:  s.PeriodFromPath(path),
		Columns: columns,
		Records: records,
	}, nil
}
