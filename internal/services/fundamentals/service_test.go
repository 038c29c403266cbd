package fundamentals

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/models"
)

// mockStore serves in-memory sheets keyed by path, in the order given.
type mockStore struct {
	order     []string
	sheets    map[string]*models.Sheet
	loadErrs  map[string]error
	findRows  []models.Record
	findErr   error
	gotSymbol string
}

func (m *mockStore) FindBySymbol(ctx context.Context, symbol string) ([]models.Record, error) {
	m.gotSymbol = symbol
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.findRows, nil
}

func (m *mockStore) Discover(ctx context.Context) ([]string, error) {
	if len(m.order) == 0 {
		return nil, common.NotFoundError("discover fundamentals", "no fundamentals files found")
	}
	return m.order, nil
}

func (m *mockStore) LoadSheet(ctx context.Context, path string) (*models.Sheet, error) {
	if err := m.loadErrs[path]; err != nil {
		return nil, err
	}
	return m.sheets[path], nil
}

func (m *mockStore) add(period string, columns []string, rows ...[]interface{}) {
	path := "业绩报表_" + period + ".csv"
	sheet := &models.Sheet{Path: path, Period: period, Columns: columns}
	for _, vals := range rows {
		values := make(map[string]interface{}, len(columns))
		for i, c := range columns {
			values[c] = vals[i]
		}
		sheet.Records = append(sheet.Records, models.NewRecord(columns, values))
	}
	if m.sheets == nil {
		m.sheets = map[string]*models.Sheet{}
	}
	m.sheets[path] = sheet
	m.order = append(m.order, path)
}

var screenHeader = []string{
	models.ColSymbol, models.ColShortName, models.ColEPS, models.ColRevenue, models.ColNetProfit,
	models.ColNetAssetsPerShare, models.ColROE, models.ColOperatingCashFlowPerShare, models.ColGrossMargin, models.ColIndustry,
}

// company builds a row in screenHeader order.
func company(symbol, name string, netProfit, roe, margin interface{}) []interface{} {
	return []interface{}{symbol, name, 1.0, 1000.0, netProfit, 5.0, roe, 0.5, margin, "行业"}
}

func reportRecord(period string, revenue, profit float64) models.Record {
	cols := []string{models.ColSymbol, models.ColRevenue, models.ColNetProfit, models.ColROE, models.ColReportPeriod}
	return models.NewRecord(cols, map[string]interface{}{
		models.ColSymbol:       "000001",
		models.ColRevenue:      revenue,
		models.ColNetProfit:    profit,
		models.ColROE:          10.0,
		models.ColReportPeriod: period,
	})
}

func TestGetFinancialReport_JoinsYears(t *testing.T) {
	store := &mockStore{findRows: []models.Record{
		reportRecord("20200630", 100, 10),
		reportRecord("20221231", 120, 12),
		reportRecord("20241231", 150, 15),
	}}
	svc := NewService(store, common.NewSilentLogger())

	report, err := svc.GetFinancialReport(context.Background(), " 000001 ")
	require.NoError(t, err)
	assert.Equal(t, "000001", store.gotSymbol)

	assert.Equal(t, []string{models.ColReportPeriod, models.ColRevenue, models.ColNetProfit, models.ColROE}, report.Columns,
		"only report columns present in the files, in report order")
	require.Len(t, report.Table, 3)
	assert.Equal(t, "20221231", report.Table[1].Text(models.ColReportPeriod))
	assert.False(t, report.Table[0].Has(models.ColSymbol))

	raw, err := json.Marshal(report.Table[0])
	require.NoError(t, err)
	assert.Equal(t, `{"报告期":"20200630","营业总收入-营业总收入":100,"净利润-净利润":10,"净资产收益率":10}`, string(raw))
}

func TestGetFinancialReport_NotFound(t *testing.T) {
	store := &mockStore{findErr: common.NotFoundError("find fundamentals", "no fundamentals data found for symbol 999999")}
	svc := NewService(store, common.NewSilentLogger())

	_, err := svc.GetFinancialReport(context.Background(), "999999")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindNotFound))

	_, err = svc.GetFinancialReport(context.Background(), "")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

func TestQualifies(t *testing.T) {
	c := models.ScreenCriteria{MinROE: 10, MinGrossMargin: 30, MinNetProfit: 0}
	rec := func(profit, roe, margin interface{}) models.Record {
		vals := company("000001", "x", profit, roe, margin)
		values := map[string]interface{}{}
		for i, col := range screenHeader {
			values[col] = vals[i]
		}
		return models.NewRecord(screenHeader, values)
	}

	assert.True(t, Qualifies(rec(1.0, 10.0, 30.0), c), "thresholds are inclusive for ROE and margin")
	assert.False(t, Qualifies(rec(0.0, 20.0, 40.0), c), "net profit must strictly exceed")
	assert.False(t, Qualifies(rec(1.0, 9.99, 40.0), c))
	assert.False(t, Qualifies(rec(1.0, 20.0, 29.9), c))
	assert.False(t, Qualifies(rec(1.0, nil, 40.0), c), "missing values never qualify")
	assert.False(t, Qualifies(rec(1.0, "--", 40.0), c))
}

func TestFilterStocks_IntersectsAcrossYears(t *testing.T) {
	store := &mockStore{}
	store.add("20221231", screenHeader,
		company("000001", "平安银行", 100.0, 12.0, 40.0),
		company("600519", "贵州茅台", 500.0, 30.0, 91.0),
		company("000002", "万科A", 80.0, 15.0, 35.0),
	)
	store.add("20231231", screenHeader,
		company("000001", "平安银行", 110.0, 11.0, 41.0),
		company("600519", "贵州茅台", 600.0, 32.0, 92.0),
		company("000002", "万科A", -20.0, 2.0, 18.0), // fails this year
	)
	svc := NewService(store, common.NewSilentLogger())

	res, err := svc.FilterStocks(context.Background(), models.ScreenCriteria{MinROE: 10, MinGrossMargin: 30, MinNetProfit: 0})
	require.NoError(t, err)

	assert.Equal(t, models.ScreenColumns, res.Columns)
	symbols := make([]string, len(res.Data))
	for i, r := range res.Data {
		symbols[i] = r.Text(models.ColSymbol)
	}
	assert.ElementsMatch(t, []string{"000001", "600519"}, symbols)
	assert.NotContains(t, symbols, "000002", "qualifying in one year is not enough")

	for _, r := range res.Data {
		if r.Text(models.ColSymbol) == "000001" {
			assert.Equal(t, 110.0, r.Float(models.ColNetProfit).Float64, "most recent year's row is kept")
		}
		assert.Equal(t, models.ScreenColumns, r.Columns())
	}
}

func TestFilterStocks_EmptyYearEmptiesResult(t *testing.T) {
	store := &mockStore{}
	store.add("20221231", screenHeader, company("000001", "平安银行", 100.0, 12.0, 40.0))
	store.add("20231231", screenHeader, company("000001", "平安银行", 100.0, 1.0, 40.0))
	svc := NewService(store, common.NewSilentLogger())

	res, err := svc.FilterStocks(context.Background(), models.ScreenCriteria{MinROE: 10, MinGrossMargin: 30})
	require.NoError(t, err)
	assert.Equal(t, models.ScreenColumns, res.Columns)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[]`)
}

func TestFilterStocks_NullsSerialized(t *testing.T) {
	store := &mockStore{}
	store.add("20231231", screenHeader, []interface{}{"000001", "平安银行", nil, 1000.0, 100.0, nil, 12.0, nil, 40.0, nil})
	svc := NewService(store, common.NewSilentLogger())

	res, err := svc.FilterStocks(context.Background(), models.ScreenCriteria{})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)

	raw, err := json.Marshal(res.Data[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"每股收益":null`)
	assert.Contains(t, string(raw), `"所处行业":null`)
}

func TestFilterStocks_NoFiles(t *testing.T) {
	svc := NewService(&mockStore{}, common.NewSilentLogger())

	_, err := svc.FilterStocks(context.Background(), models.ScreenCriteria{})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

func TestFilterStocks_ReportsEveryBadFile(t *testing.T) {
	store := &mockStore{}
	store.add("20211231", screenHeader, company("000001", "平安银行", 100.0, 12.0, 40.0))
	store.add("20221231", []string{models.ColSymbol, models.ColROE}, []interface{}{"000001", 12.0})
	store.add("20231231", screenHeader)
	store.loadErrs = map[string]error{
		"业绩报表_20231231.csv": common.ParseError("业绩报表_20231231.csv", fmt.Errorf("bad quoting")),
	}
	svc := NewService(store, common.NewSilentLogger())

	_, err := svc.FilterStocks(context.Background(), models.ScreenCriteria{})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindParse))
	assert.Contains(t, err.Error(), "业绩报表_20221231.csv")
	assert.Contains(t, err.Error(), "业绩报表_20231231.csv")
	assert.Contains(t, err.Error(), "failed to read 2 of 3")
}
