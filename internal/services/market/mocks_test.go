package market

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"

	"github.com/bobmcallan/cnstock/internal/models"
)

type mockMarketClient struct {
	bars     []models.DailyBar
	items    map[string]float64
	histErr  error
	factsErr error

	gotFrom time.Time
	gotTo   time.Time
}

func (m *mockMarketClient) GetDailyHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyBar, error) {
	m.gotFrom, m.gotTo = from, to
	if m.histErr != nil {
		return nil, m.histErr
	}
	out := make([]models.DailyBar, len(m.bars))
	copy(out, m.bars)
	return out, nil
}

func (m *mockMarketClient) GetCompanyFacts(ctx context.Context, symbol string) (map[string]float64, error) {
	if m.factsErr != nil {
		return nil, m.factsErr
	}
	return m.items, nil
}

type mockDirectory map[string]string

func (d mockDirectory) Name(symbol string) (string, bool) {
	n, ok := d[symbol]
	return n, ok
}

func (d mockDirectory) Len() int { return len(d) }

type mockRenderer struct {
	calls     int
	gotTitle  string
	gotValues []float64
	err       error
	panicMsg  string
}

func (r *mockRenderer) RenderTurnoverHistogram(ctx context.Context, title string, logValues []float64, bands models.TurnoverBands) ([]byte, error) {
	r.calls++
	r.gotTitle = title
	r.gotValues = logValues
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte("\x89PNG fake"), nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bar(date time.Time, amount, turnover float64) models.DailyBar {
	b := models.DailyBar{
		Symbol: "000001",
		Date:   date,
		Open:   10,
		Close:  10.5,
		High:   11,
		Low:    9.8,
		Volume: 1000,
		Amount: amount,
	}
	if !math.IsNaN(turnover) { // NaN means missing
		b.TurnoverRate = null.FloatFrom(turnover)
	}
	return b
}

func defaultFacts() map[string]float64 {
	return map[string]float64{
		models.FactTotalShares:      19405918198,
		models.FactFloatShares:      19405546950,
		models.FactTotalMarketValue: 2.2e11,
		models.FactFloatMarketValue: 2.2e11,
	}
}

var errBoom = fmt.Errorf("boom")
