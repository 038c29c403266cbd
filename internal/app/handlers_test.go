package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/interfaces"
	"github.com/bobmcallan/cnstock/internal/models"
)

type stubMarketService struct {
	report *models.StockReport
	err    error
	gotReq interfaces.StockDataRequest
}

func (s *stubMarketService) GetStockData(ctx context.Context, req interfaces.StockDataRequest) (*models.StockReport, error) {
	s.gotReq = req
	return s.report, s.err
}

type stubFundamentalsService struct {
	report      *models.FinancialReport
	screen      *models.ScreeningResult
	err         error
	gotCriteria models.ScreenCriteria
}

func (s *stubFundamentalsService) GetFinancialReport(ctx context.Context, symbol string) (*models.FinancialReport, error) {
	return s.report, s.err
}

func (s *stubFundamentalsService) FilterStocks(ctx context.Context, criteria models.ScreenCriteria) (*models.ScreeningResult, error) {
	s.gotCriteria = criteria
	return s.screen, s.err
}

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func sampleReport() *models.StockReport {
	d := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	return &models.StockReport{
		Shape:     [2]int{1, len(models.HistoryColumns)},
		StockName: "平安银行",
		Table: []models.DailyBar{{
			Date: d, Open: 13.2, Close: 13.77, High: 13.85, Low: 13.05, Volume: 2194128,
			TurnoverRate: null.FloatFrom(1.13), MarketCap: null.FloatFrom(2629.69),
		}},
		MaxMarketCap:   &models.MarketCapPoint{Date: "2023/01/03", Value: 2629.69},
		MinMarketCap:   &models.MarketCapPoint{Date: "2023/01/03", Value: 2629.69},
		FilteredDict:   map[string]float64{models.FactTotalShares: 194.06},
		CurrentPrice:   11.33,
		HistogramImage: []byte{0x89, 'P', 'N', 'G'},
		TurnoverBands:  &models.TurnoverBands{Samples: 1, Percentages: [5]float64{1.13, 1.13, 1.13, 1.13, 1.13}},
	}
}

func TestHandleGetStockData(t *testing.T) {
	svc := &stubMarketService{report: sampleReport()}
	h := handleGetStockData(svc, common.NewSilentLogger())

	result := callTool(t, h, map[string]interface{}{
		"symbol":      "000001",
		"start_date":  "20230101",
		"end_date":    "20230110",
		"sort_column": "成交额",
	})

	assert.False(t, result.IsError)
	assert.Equal(t, "000001", svc.gotReq.Symbol)
	assert.Equal(t, "成交额", svc.gotReq.SortColumn)
	assert.Empty(t, svc.gotReq.SortOrder)

	text := textOf(t, result)
	assert.Contains(t, text, "# 000001 - 平安银行")
	assert.Contains(t, text, "2629.69 亿 on 2023/01/03")
	assert.Contains(t, text, "| 2023/01/03 |")

	require.Len(t, result.Content, 2)
	img, ok := result.Content[1].(mcp.ImageContent)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, "iVBORw==", img.Data)
}

func TestHandleGetStockData_MissingParams(t *testing.T) {
	svc := &stubMarketService{report: sampleReport()}
	h := handleGetStockData(svc, common.NewSilentLogger())

	result := callTool(t, h, map[string]interface{}{"symbol": "000001", "start_date": "20230101"})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "end_date")
	assert.Empty(t, svc.gotReq.Symbol, "service not called")
}

func TestHandleGetStockData_ServiceError(t *testing.T) {
	svc := &stubMarketService{err: common.UpstreamError("fetch history", "000001", errors.New("timeout"))}
	h := handleGetStockData(svc, common.NewSilentLogger())

	result := callTool(t, h, map[string]interface{}{"symbol": "000001", "start_date": "20230101", "end_date": "20230110"})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "upstream fetch failed")
}

func TestHandleGetFinancialReport(t *testing.T) {
	rec := models.NewRecord(
		[]string{models.ColReportPeriod, models.ColROE},
		map[string]interface{}{models.ColReportPeriod: "20231231", models.ColROE: 34.19},
	)
	svc := &stubFundamentalsService{report: &models.FinancialReport{
		Columns: []string{models.ColReportPeriod, models.ColROE},
		Table:   []models.Record{rec},
	}}
	h := handleGetFinancialReport(svc, common.NewSilentLogger())

	result := callTool(t, h, map[string]interface{}{"symbol": "600519"})
	assert.False(t, result.IsError)
	text := textOf(t, result)
	assert.Contains(t, text, "**Fiscal years:** 1")
	assert.Contains(t, text, "| 20231231 | 34.19 |")

	result = callTool(t, h, map[string]interface{}{})
	assert.True(t, result.IsError)
}

func TestHandleFilterStocks(t *testing.T) {
	svc := &stubFundamentalsService{screen: &models.ScreeningResult{Columns: models.ScreenColumns, Data: []models.Record{}}}
	h := handleFilterStocks(svc, common.NewSilentLogger())

	result := callTool(t, h, map[string]interface{}{"roe": 15.0, "gross_margin": 30.0, "net_profit": 0.0})
	assert.False(t, result.IsError)
	assert.Equal(t, models.ScreenCriteria{MinROE: 15, MinGrossMargin: 30}, svc.gotCriteria)
	assert.Contains(t, textOf(t, result), "No companies meet the criteria")

	result = callTool(t, h, map[string]interface{}{"roe": 15.0, "gross_margin": 30.0})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "net_profit")
}

func TestHandleGetVersion(t *testing.T) {
	result := callTool(t, handleGetVersion(), nil)
	assert.Contains(t, textOf(t, result), "cnstock ")
}

func TestFormatStockReport_NoExtremesNoBands(t *testing.T) {
	r := &models.StockReport{StockName: models.UnknownSecurityName, FilteredDict: map[string]float64{}}
	text := formatStockReport("000001", r)
	assert.Contains(t, text, "No market cap data in range.")
	assert.Contains(t, text, "No turnover histogram available.")
	assert.NotContains(t, text, "## History")
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "-", formatCell(nil))
	assert.Equal(t, "12.5", formatCell(12.5))
	assert.Equal(t, "贵州茅台", formatCell("贵州茅台"))
	assert.Equal(t, "-", formatNull(null.Float{}))
	assert.Equal(t, "1.13", formatNull(null.FloatFrom(1.13)))
}
