package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"

	"github.com/bobmcallan/cnstock/internal/models"
)

// formatNull renders a nullable number to 2 dp, "-" when null.
func formatNull(v null.Float) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

// formatCell renders a fundamentals cell.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

// formatStockReport formats a stock report as markdown
func formatStockReport(symbol string, r *models.StockReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s - %s\n\n", symbol, r.StockName))
	sb.WriteString(fmt.Sprintf("**Trading days:** %d\n", r.Shape[0]))
	sb.WriteString(fmt.Sprintf("**Current price:** %.2f\n\n", r.CurrentPrice))

	sb.WriteString("## Company Facts (亿)\n\n")
	sb.WriteString("| Item | Value |\n")
	sb.WriteString("|------|-------|\n")
	for _, key := range []string{models.FactTotalShares, models.FactFloatShares, models.FactTotalMarketValue} {
		sb.WriteString(fmt.Sprintf("| %s | %.2f |\n", key, r.FilteredDict[key]))
	}
	sb.WriteString("\n")

	sb.WriteString("## Market Cap Extremes\n\n")
	if r.MaxMarketCap == nil || r.MinMarketCap == nil {
		sb.WriteString("No market cap data in range.\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("- **Max:** %.2f 亿 on %s\n", r.MaxMarketCap.Value, r.MaxMarketCap.Date))
		sb.WriteString(fmt.Sprintf("- **Min:** %.2f 亿 on %s\n\n", r.MinMarketCap.Value, r.MinMarketCap.Date))
	}

	if b := r.TurnoverBands; b != nil {
		sb.WriteString("## Turnover Bands\n\n")
		sb.WriteString(fmt.Sprintf("Log-turnover mean %.4f, std dev %.4f over %d days.\n\n", b.Mean, b.StdDev, b.Samples))
		sb.WriteString("| Band | ln(x) | 换手率 |\n")
		sb.WriteString("|------|-------|--------|\n")
		labels := [5]string{"μ−2σ", "μ−σ", "μ", "μ+σ", "μ+2σ"}
		for i := range labels {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f%% |\n", labels[i], b.LogBounds[i], b.Percentages[i]))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No turnover histogram available.\n\n")
	}

	if len(r.Table) > 0 {
		sb.WriteString("## History\n\n")
		sb.WriteString("| " + strings.Join(models.TableColumns, " | ") + " |\n")
		sb.WriteString("|" + strings.Repeat("---|", len(models.TableColumns)) + "\n")
		for _, b := range r.Table {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f | %.2f | %d | %s | %s |\n",
				b.DateLabel(), b.Open, b.Close, b.High, b.Low, b.PctChange, b.Volume,
				formatNull(b.TurnoverRate), formatNull(b.MarketCap)))
		}
	}

	return sb.String()
}

// formatRecords renders records as a markdown table over columns.
func formatRecords(sb *strings.Builder, columns []string, rows []models.Record) {
	sb.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat("---|", len(columns)) + "\n")
	for _, r := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = formatCell(r.Get(c))
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

// formatFinancialReport formats a joined financial report as markdown
func formatFinancialReport(symbol string, r *models.FinancialReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Financial Report: %s\n\n", symbol))
	sb.WriteString(fmt.Sprintf("**Fiscal years:** %d\n\n", len(r.Table)))
	formatRecords(&sb, r.Columns, r.Table)
	return sb.String()
}

// formatScreeningResult formats a screening result as markdown
func formatScreeningResult(c models.ScreenCriteria, r *models.ScreeningResult) string {
	var sb strings.Builder
	sb.WriteString("# Stock Screen\n\n")
	sb.WriteString(fmt.Sprintf("**Criteria:** ROE ≥ %g, gross margin ≥ %g, net profit > %g in every fiscal year\n\n",
		c.MinROE, c.MinGrossMargin, c.MinNetProfit))

	if len(r.Data) == 0 {
		sb.WriteString("No companies meet the criteria in every fiscal year.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("**Matches:** %d\n\n", len(r.Data)))
	formatRecords(&sb, r.Columns, r.Data)
	return sb.String()
}
