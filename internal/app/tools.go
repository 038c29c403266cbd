package app

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/cnstock/internal/services/market"
)

// createGetStockDataTool returns the get_stock_data tool definition
func createGetStockDataTool() mcp.Tool {
	return mcp.NewTool("get_stock_data",
		mcp.WithDescription("Get daily A-share history for a symbol and date range: top rows ranked by a column, market-cap extremes, company facts, current price and the log-turnover distribution with ±1σ/±2σ bands."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("A-share code (e.g., '000001', '600519')"),
		),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("Start date, YYYYMMDD"),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("End date, YYYYMMDD"),
		),
		mcp.WithString("sort_column",
			mcp.Description("Column that selects the top rows: "+strings.Join(market.SortColumns(), ", ")+" (default: 换手率)"),
		),
		mcp.WithString("sort_order",
			mcp.Description("asc or desc (default: desc)"),
		),
	)
}

// createGetFinancialReportTool returns the get_financial_report tool definition
func createGetFinancialReportTool() mcp.Tool {
	return mcp.NewTool("get_financial_report",
		mcp.WithDescription("Get a company's annual fundamentals (revenue, net profit, EPS, net assets per share, operating cash flow per share, gross margin, ROE) across every available fiscal year."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("A-share code (e.g., '600519')"),
		),
	)
}

// createFilterStocksTool returns the filter_stocks tool definition
func createFilterStocksTool() mcp.Tool {
	return mcp.NewTool("filter_stocks",
		mcp.WithDescription("Screen every company that meets all three thresholds in every fiscal year on file. Returns each match's most recent year."),
		mcp.WithNumber("roe",
			mcp.Required(),
			mcp.Description("Minimum return on equity, percent (inclusive)"),
		),
		mcp.WithNumber("gross_margin",
			mcp.Required(),
			mcp.Description("Minimum gross margin, percent (inclusive)"),
		),
		mcp.WithNumber("net_profit",
			mcp.Required(),
			mcp.Description("Net profit must exceed this value, yuan"),
		),
	)
}

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the cnstock server version."),
	)
}
