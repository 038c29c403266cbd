package app

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/interfaces"
	"github.com/bobmcallan/cnstock/internal/models"
)

// handleGetStockData implements the get_stock_data tool
func handleGetStockData(marketService interfaces.MarketService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || symbol == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}
		startDate, err := request.RequireString("start_date")
		if err != nil {
			return errorResult("Error: start_date parameter is required"), nil
		}
		endDate, err := request.RequireString("end_date")
		if err != nil {
			return errorResult("Error: end_date parameter is required"), nil
		}

		report, err := marketService.GetStockData(ctx, interfaces.StockDataRequest{
			Symbol:     symbol,
			StartDate:  startDate,
			EndDate:    endDate,
			SortColumn: request.GetString("sort_column", ""),
			SortOrder:  request.GetString("sort_order", ""),
		})
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Get stock data failed")
			return errorResult(fmt.Sprintf("Error getting stock data: %v", err)), nil
		}

		result := textResult(formatStockReport(symbol, report))
		if len(report.HistogramImage) > 0 {
			result.Content = append(result.Content,
				mcp.NewImageContent(base64.StdEncoding.EncodeToString(report.HistogramImage), "image/png"))
		}
		return result, nil
	}
}

// handleGetFinancialReport implements the get_financial_report tool
func handleGetFinancialReport(fundamentalsService interfaces.FundamentalsService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || symbol == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		report, err := fundamentalsService.GetFinancialReport(ctx, symbol)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("Get financial report failed")
			return errorResult(fmt.Sprintf("Error getting financial report: %v", err)), nil
		}

		return textResult(formatFinancialReport(symbol, report)), nil
	}
}

// handleFilterStocks implements the filter_stocks tool
func handleFilterStocks(fundamentalsService interfaces.FundamentalsService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var criteria models.ScreenCriteria
		var err error
		if criteria.MinROE, err = request.RequireFloat("roe"); err != nil {
			return errorResult("Error: roe must be a number"), nil
		}
		if criteria.MinGrossMargin, err = request.RequireFloat("gross_margin"); err != nil {
			return errorResult("Error: gross_margin must be a number"), nil
		}
		if criteria.MinNetProfit, err = request.RequireFloat("net_profit"); err != nil {
			return errorResult("Error: net_profit must be a number"), nil
		}

		result, err := fundamentalsService.FilterStocks(ctx, criteria)
		if err != nil {
			logger.Error().Err(err).Msg("Filter stocks failed")
			return errorResult(fmt.Sprintf("Error filtering stocks: %v", err)), nil
		}

		return textResult(formatScreeningResult(criteria, result)), nil
	}
}

// handleGetVersion implements the get_version tool
func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult("cnstock " + common.GetFullVersion()), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
