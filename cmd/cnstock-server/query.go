package main

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/cnstock/internal/app"
	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/interfaces"
	"github.com/bobmcallan/cnstock/internal/models"
)

var (
	stockStart      string
	stockEnd        string
	stockSortColumn string
	stockSortOrder  string

	screenCriteria models.ScreenCriteria
)

var stockCmd = &cobra.Command{
	Use:   "stock <symbol>",
	Short: "Print a symbol's ranked history report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(configPath)
		if err != nil {
			return err
		}
		report, err := a.MarketService.GetStockData(cmd.Context(), interfaces.StockDataRequest{
			Symbol:     strings.TrimSpace(args[0]),
			StartDate:  stockStart,
			EndDate:    stockEnd,
			SortColumn: stockSortColumn,
			SortOrder:  stockSortOrder,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <symbol>",
	Short: "Print a symbol's multi-year financial report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(configPath)
		if err != nil {
			return err
		}
		report, err := a.FundamentalsService.GetFinancialReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Print companies meeting the thresholds in every fiscal year as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(configPath)
		if err != nil {
			return err
		}
		result, err := a.FundamentalsService.FilterStocks(cmd.Context(), screenCriteria)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd.OutOrStdout(), common.GetVersionInfo())
	},
}

func init() {
	today := time.Now().Format("20060102")
	stockCmd.Flags().StringVar(&stockStart, "start", time.Now().AddDate(-1, 0, 0).Format("20060102"), "start date (YYYYMMDD)")
	stockCmd.Flags().StringVar(&stockEnd, "end", today, "end date (YYYYMMDD)")
	stockCmd.Flags().StringVar(&stockSortColumn, "sort-column", "", "ranking column (default 换手率)")
	stockCmd.Flags().StringVar(&stockSortOrder, "sort-order", "", "asc or desc (default desc)")

	screenCmd.Flags().Float64Var(&screenCriteria.MinROE, "roe", 0, "minimum ROE, percent")
	screenCmd.Flags().Float64Var(&screenCriteria.MinGrossMargin, "gross-margin", 0, "minimum gross margin, percent")
	screenCmd.Flags().Float64Var(&screenCriteria.MinNetProfit, "net-profit", 0, "net profit must exceed this, yuan")
	for _, name := range []string{"roe", "gross-margin", "net-profit"} {
		_ = screenCmd.MarkFlagRequired(name)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
