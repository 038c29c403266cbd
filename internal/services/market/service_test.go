package market

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/interfaces"
	"github.com/bobmcallan/cnstock/internal/models"
)

func TestGetStockData_AssemblesReport(t *testing.T) {
	client := &mockMarketClient{bars: historyOf(80), items: defaultFacts()}
	renderer := &mockRenderer{}
	svc := NewService(client, mockDirectory{"000001": "平安银行"}, renderer, 2, common.NewSilentLogger())

	report, err := svc.GetStockData(context.Background(), interfaces.StockDataRequest{
		Symbol:    "000001",
		StartDate: "20230101",
		EndDate:   "20231231",
	})
	require.NoError(t, err)

	assert.Equal(t, [2]int{80, len(models.HistoryColumns)}, report.Shape)
	assert.Len(t, report.Table, TableLimit)
	assert.Equal(t, "平安银行", report.StockName)
	assert.NotNil(t, report.MaxMarketCap)
	assert.NotNil(t, report.MinMarketCap)
	assert.Len(t, report.FilteredDict, 3)
	assert.Greater(t, report.CurrentPrice, 0.0)
	assert.NotEmpty(t, report.HistogramImage)
	require.NotNil(t, report.TurnoverBands)
	assert.Equal(t, 1, renderer.calls)
}

func TestGetStockData_JSONShape(t *testing.T) {
	client := &mockMarketClient{
		bars: []models.DailyBar{
			bar(day(2023, 1, 3), 2971547136, 1.13),
			bar(day(2023, 1, 4), 1e9, 0),
		},
		items: defaultFacts(),
	}
	svc := NewService(client, mockDirectory{}, &mockRenderer{err: errBoom}, 1, common.NewSilentLogger())

	report, err := svc.GetStockData(context.Background(), interfaces.StockDataRequest{
		Symbol: "000001", StartDate: "20230101", EndDate: "20230110",
	})
	require.NoError(t, err)

	raw, err := json.Marshal(report)
	require.NoError(t, err)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.JSONEq(t, `[2, 13]`, string(body["shape"]))
	assert.JSONEq(t, `"未知证券"`, string(body["stock_name"]))
	assert.JSONEq(t, `null`, string(body["histogram_image"]), "render failure leaves no image")
	assert.JSONEq(t, `{"日期":"2023/01/03","市值（亿）":2629.69}`, string(body["max_market_cap"]))
	assert.NotContains(t, body, "turnover_bands")

	var table []map[string]interface{}
	require.NoError(t, json.Unmarshal(body["table"], &table))
	require.Len(t, table, 2)
	assert.Equal(t, "2023/01/03", table[0][models.ColDate])
	assert.Nil(t, table[1][models.ColMarketCap])
	assert.Len(t, table[0], len(models.TableColumns))
}

func TestGetStockData_InvalidSortRejectedBeforeFetch(t *testing.T) {
	client := &mockMarketClient{items: defaultFacts()}
	svc := NewService(client, mockDirectory{}, &mockRenderer{}, 1, common.NewSilentLogger())

	_, err := svc.GetStockData(context.Background(), interfaces.StockDataRequest{
		Symbol: "000001", StartDate: "20230101", EndDate: "20230110", SortColumn: "nope",
	})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindValidation))
	assert.True(t, client.gotFrom.IsZero(), "upstream not called")
}

func TestGetStockData_UpstreamError(t *testing.T) {
	svc := NewService(&mockMarketClient{histErr: errBoom}, mockDirectory{}, &mockRenderer{}, 1, common.NewSilentLogger())

	_, err := svc.GetStockData(context.Background(), interfaces.StockDataRequest{
		Symbol: "000001", StartDate: "20230101", EndDate: "20230110",
	})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindUpstreamFetch))
}
