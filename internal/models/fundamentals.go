package models

import (
	"encoding/json"
	"strconv"

	"github.com/guregu/null/v6"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fundamentals CSV column names.
const (
	ColSymbol                    = ColCode
	ColShortName                 = "股票简称"
	ColEPS                       = "每股收益"
	ColRevenue                   = "营业总收入-营业总收入"
	ColNetProfit                 = "净利润-净利润"
	ColNetAssetsPerShare         = "每股净资产"
	ColROE                       = "净资产收益率"
	ColOperatingCashFlowPerShare = "每股经营现金流量"
	ColGrossMargin               = "销售毛利率"
	ColIndustry                  = "所处行业"
	ColAnnouncementDate          = "最新公告日期"
	ColReportPeriod              = "报告期"
)

// ReportColumns is the ordered projection of a per-symbol financial report.
var ReportColumns = []string{
	ColReportPeriod, ColRevenue, ColNetProfit, ColEPS,
	ColNetAssetsPerShare, ColOperatingCashFlowPerShare, ColGrossMargin, ColROE,
}

// ScreenColumns is the ordered projection of a screening result.
var ScreenColumns = []string{
	ColSymbol, ColShortName, ColEPS, ColRevenue, ColNetProfit,
	ColNetAssetsPerShare, ColROE, ColOperatingCashFlowPerShare, ColGrossMargin, ColIndustry,
}

var textColumns = map[string]bool{
	ColSymbol:           true,
	ColShortName:        true,
	ColIndustry:         true,
	ColAnnouncementDate: true,
	ColReportPeriod:     true,
}

// IsTextColumn reports whether a column is always kept as text.
func IsTextColumn(col string) bool {
	return textColumns[col]
}

// Record is one CSV row: ordered columns with values that are string, float64 or nil.
type Record struct {
	columns []string
	values  map[string]interface{}
}

// NewRecord builds a record; values for columns missing from the map are nil.
func NewRecord(columns []string, values map[string]interface{}) Record {
	cols := make([]string, len(columns))
	copy(cols, columns)
	vals := make(map[string]interface{}, len(columns))
	for _, c := range cols {
		vals[c] = values[c]
	}
	return Record{columns: cols, values: vals}
}

// Columns returns the record's columns in order.
func (r Record) Columns() []string {
	return r.columns
}

// Has reports whether the record carries the column (its value may still be nil).
func (r Record) Has(col string) bool {
	_, ok := r.values[col]
	return ok
}

// Get returns the raw value of a column.
func (r Record) Get(col string) interface{} {
	return r.values[col]
}

// Text returns a column as text; numbers are formatted, nil is "".
func (r Record) Text(col string) string {
	switch v := r.values[col].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns a numeric column; text and nil values are null.
func (r Record) Float(col string) null.Float {
	if v, ok := r.values[col].(float64); ok {
		return null.FloatFrom(v)
	}
	return null.Float{}
}

// With returns a copy with col set to v, appending col when new.
func (r Record) With(col string, v interface{}) Record {
	out := NewRecord(r.columns, r.values)
	if !out.Has(col) {
		out.columns = append(out.columns, col)
	}
	out.values[col] = v
	return out
}

// Project returns a copy restricted to cols, in that order. Absent columns are nil.
func (r Record) Project(cols []string) Record {
	return NewRecord(cols, r.values)
}

// MarshalJSON emits the record as an object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, interface{}](len(r.columns))
	for _, c := range r.columns {
		om.Set(c, r.values[c])
	}
	return json.Marshal(om)
}

// Sheet is one parsed fiscal-year fundamentals file.
type Sheet struct {
	Path    string
	Period  string // e.g. "20231231", taken from the file name
	Columns []string
	Records []Record
}

// HasColumn reports whether the file header contains col.
func (s *Sheet) HasColumn(col string) bool {
	for _, c := range s.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// FundamentalsRow is the typed view of one company's one fiscal year.
type FundamentalsRow struct {
	Symbol                    string
	ShortName                 string
	EPS                       null.Float
	Revenue                   null.Float
	NetProfit                 null.Float
	NetAssetsPerShare         null.Float
	OperatingCashFlowPerShare null.Float
	GrossMargin               null.Float
	ROE                       null.Float
	Industry                  string
	ReportPeriod              string
}

// RowFromRecord converts a CSV record into its typed view.
func RowFromRecord(r Record) FundamentalsRow {
	return FundamentalsRow{
		Symbol:                    r.Text(ColSymbol),
		ShortName:                 r.Text(ColShortName),
		EPS:                       r.Float(ColEPS),
		Revenue:                   r.Float(ColRevenue),
		NetProfit:                 r.Float(ColNetProfit),
		NetAssetsPerShare:         r.Float(ColNetAssetsPerShare),
		OperatingCashFlowPerShare: r.Float(ColOperatingCashFlowPerShare),
		GrossMargin:               r.Float(ColGrossMargin),
		ROE:                       r.Float(ColROE),
		Industry:                  r.Text(ColIndustry),
		ReportPeriod:              r.Text(ColReportPeriod),
	}
}

// FinancialReport is the /get_financial_report response body.
type FinancialReport struct {
	Table   []Record `json:"table"`
	Columns []string `json:"columns"`
}

// ScreenCriteria are the three screening thresholds.
type ScreenCriteria struct {
	MinROE         float64 `json:"roe"`
	MinGrossMargin float64 `json:"gross_margin"`
	MinNetProfit   float64 `json:"net_profit"` // strict: net profit must exceed this
}

// ScreeningResult is the /get_filtered_stocks response body.
type ScreeningResult struct {
	Columns []string `json:"columns"`
	Data    []Record `json:"data"`
}
