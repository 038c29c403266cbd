package interfaces

import (
	"context"

	"github.com/bobmcallan/cnstock/internal/models"
)

// SymbolDirectory resolves ticker codes to display names
type SymbolDirectory interface {
	// Name returns the display name for symbol and whether it is known
	Name(symbol string) (string, bool)

	// Len returns the number of known symbols
	Len() int
}

// FundamentalsStore reads the per-fiscal-year fundamentals files
type FundamentalsStore interface {
	// FindBySymbol scans every expected year file and returns the matching rows,
	// each tagged with its reporting period
	FindBySymbol(ctx context.Context, symbol string) ([]models.Record, error)

	// Discover lists every fundamentals file present, ordered by reporting period
	Discover(ctx context.Context) ([]string, error)

	// LoadSheet reads one file fully
	LoadSheet(ctx context.Context, path string) (*models.Sheet, error)
}
