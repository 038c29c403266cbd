// Package models defines data structures for cnstock
package models

import (
	"encoding/json"
	"time"

	"github.com/guregu/null/v6"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// History column names as published by the provider and consumed by the front end.
const (
	ColDate      = "日期"
	ColCode      = "股票代码"
	ColOpen      = "开盘"
	ColClose     = "收盘"
	ColHigh      = "最高"
	ColLow       = "最低"
	ColVolume    = "成交量"
	ColAmount    = "成交额"
	ColAmplitude = "振幅"
	ColPctChange = "涨跌幅"
	ColChange    = "涨跌额"
	ColTurnover  = "换手率"
	ColMarketCap = "市值（亿）"
)

// HistoryColumns is the full column set of a fetched history, derived market cap included.
var HistoryColumns = []string{
	ColDate, ColCode, ColOpen, ColClose, ColHigh, ColLow, ColVolume,
	ColAmount, ColAmplitude, ColPctChange, ColChange, ColTurnover, ColMarketCap,
}

// TableColumns is the projection returned in the ranked history table.
var TableColumns = []string{
	ColDate, ColOpen, ColClose, ColHigh, ColLow, ColPctChange, ColVolume, ColTurnover, ColMarketCap,
}

// Company fact keys.
const (
	FactTotalShares      = "总股本"
	FactFloatShares      = "流通股"
	FactTotalMarketValue = "总市值"
	FactFloatMarketValue = "流通市值"
)

// UnknownSecurityName is shown when a symbol is missing from the directory.
const UnknownSecurityName = "未知证券"

// DateLayout is the display format for trading days.
const DateLayout = "2006/01/02"

// DailyBar is one trading day for one symbol.
type DailyBar struct {
	Symbol       string
	Date         time.Time
	Open         float64
	Close        float64
	High         float64
	Low          float64
	Volume       int64   // lots
	Amount       float64 // traded value, yuan
	Amplitude    float64 // percent
	PctChange    float64 // percent
	Change       float64
	TurnoverRate null.Float // percent
	MarketCap    null.Float // units of 100 million yuan; derived, null unless turnover > 0
}

// DateLabel formats the trading day as YYYY/MM/DD.
func (b DailyBar) DateLabel() string {
	return b.Date.Format(DateLayout)
}

// MarshalJSON emits the table projection keyed by the wire column names, in column order.
func (b DailyBar) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, interface{}]()
	om.Set(ColDate, b.DateLabel())
	om.Set(ColOpen, b.Open)
	om.Set(ColClose, b.Close)
	om.Set(ColHigh, b.High)
	om.Set(ColLow, b.Low)
	om.Set(ColPctChange, b.PctChange)
	om.Set(ColVolume, b.Volume)
	om.Set(ColTurnover, b.TurnoverRate)
	om.Set(ColMarketCap, b.MarketCap)
	return json.Marshal(om)
}

// CompanyFacts is a point-in-time snapshot of share capital and value, each in units of 100 million.
type CompanyFacts struct {
	TotalShares      float64
	FloatShares      float64
	TotalMarketValue float64
}

// Map returns the facts keyed by their display names.
func (f CompanyFacts) Map() map[string]float64 {
	return map[string]float64{
		FactTotalShares:      f.TotalShares,
		FactFloatShares:      f.FloatShares,
		FactTotalMarketValue: f.TotalMarketValue,
	}
}

// StockHistory is the History Fetcher output for one request.
type StockHistory struct {
	Symbol       string
	Name         string
	Bars         []DailyBar
	Facts        CompanyFacts
	CurrentPrice float64
}

// MarketCapPoint pairs a trading day with its derived market cap.
type MarketCapPoint struct {
	Date  string
	Value float64
}

// MarshalJSON emits {"日期": ..., "市值（亿）": ...}.
func (p MarketCapPoint) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, interface{}]()
	om.Set(ColDate, p.Date)
	om.Set(ColMarketCap, p.Value)
	return json.Marshal(om)
}

// RankedHistory is the Ranking & Extremes Processor output.
type RankedHistory struct {
	Max   *MarketCapPoint
	Min   *MarketCapPoint
	Table []DailyBar
}

// TurnoverBands holds the log-turnover mean and ±1σ/±2σ boundaries.
// Bounds are ordered μ−2σ, μ−σ, μ, μ+σ, μ+2σ; Percentages are exp(bound) rounded to 2 dp.
type TurnoverBands struct {
	Mean        float64    `json:"mean"`
	StdDev      float64    `json:"std_dev"`
	Samples     int        `json:"samples"`
	LogBounds   [5]float64 `json:"log_bounds"`
	Percentages [5]float64 `json:"percentages"`
}

// HistogramResult is a rendered turnover histogram plus its bands.
type HistogramResult struct {
	Image []byte // PNG
	Bands TurnoverBands
}

// StockReport is the /get_stock_data response body.
type StockReport struct {
	Shape          [2]int             `json:"shape"`
	Table          []DailyBar         `json:"table"`
	StockName      string             `json:"stock_name"`
	MaxMarketCap   *MarketCapPoint    `json:"max_market_cap"`
	MinMarketCap   *MarketCapPoint    `json:"min_market_cap"`
	FilteredDict   map[string]float64 `json:"filtered_dict"`
	CurrentPrice   float64            `json:"current_price"`
	HistogramImage []byte             `json:"histogram_image"` // base64 in JSON, null when absent
	TurnoverBands  *TurnoverBands     `json:"turnover_bands,omitempty"`
}
