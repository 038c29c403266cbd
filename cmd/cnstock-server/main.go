// Command cnstock-server serves the A-share history, turnover and fundamentals API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cnstock-server",
	Short: "A-share history, turnover and fundamentals screening",
	Long: `cnstock-server serves the cnstock JSON API and MCP endpoint.

Commands:
    serve       start the HTTP server (default)
    stock       print one symbol's ranked history report
    report      print one symbol's multi-year financial report
    screen      screen the fundamentals corpus
    version     print version information
`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: $CNSTOCK_CONFIG, cnstock.toml next to the binary, then config/cnstock.toml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stockCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
