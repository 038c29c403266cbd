// Package app wires configuration, clients, storage and services into one App.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/cnstock/internal/clients/eastmoney"
	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/interfaces"
	"github.com/bobmcallan/cnstock/internal/services/fundamentals"
	"github.com/bobmcallan/cnstock/internal/services/market"
	"github.com/bobmcallan/cnstock/internal/storage/fundamentalsfs"
	"github.com/bobmcallan/cnstock/internal/symbols"
)

// App holds all initialized services, clients, and the MCP server.
// It is the shared core used by every cnstock-server subcommand.
type App struct {
	Config              *common.Config
	Logger              *common.Logger
	Symbols             interfaces.SymbolDirectory
	Fundamentals        interfaces.FundamentalsStore
	MarketClient        interfaces.MarketDataClient
	MarketService       interfaces.MarketService
	FundamentalsService interfaces.FundamentalsService
	MCPServer           *server.MCPServer
	StartupTime         time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, CNSTOCK_CONFIG, cnstock.toml next
// to the binary, then config/cnstock.toml. The result may not exist.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("CNSTOCK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "cnstock.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/cnstock.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and builds the App. Relative data paths are anchored at the
// config file's directory when a config file exists.
func NewApp(configPath string) (*App, error) {
	configPath = ResolveConfigPath(configPath)

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := os.Stat(configPath); err == nil {
		config.ResolvePaths(filepath.Dir(configPath))
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return New(config, logger)
}

// New builds the App from an already loaded configuration. A missing fundamentals
// directory or an unreadable symbol directory is fatal.
func New(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	directory, err := symbols.Load(config.Data.SymbolsPath)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", config.Data.SymbolsPath).Int("symbols", directory.Len()).Msg("Symbol directory loaded")

	store, err := fundamentalsfs.NewStore(logger, config.Data.FundamentalsDir, config.Data.FilePrefix, config.Data.Years())
	if err != nil {
		return nil, err
	}

	client := eastmoney.NewClient(
		eastmoney.WithHistoryURL(config.Clients.Eastmoney.HistoryURL),
		eastmoney.WithQuoteURL(config.Clients.Eastmoney.QuoteURL),
		eastmoney.WithLogger(logger),
		eastmoney.WithRateLimit(config.Clients.Eastmoney.RateLimit),
		eastmoney.WithTimeout(config.Clients.Eastmoney.GetTimeout()),
	)

	renderer, err := market.NewChartRenderer(config.Chart)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chart renderer: %w", err)
	}

	a := &App{
		Config:              config,
		Logger:              logger,
		Symbols:             directory,
		Fundamentals:        store,
		MarketClient:        client,
		MarketService:       market.NewService(client, directory, renderer, config.Chart.MaxConcurrent, logger),
		FundamentalsService: fundamentals.NewService(store, logger),
		MCPServer: server.NewMCPServer(
			"cnstock",
			common.Version,
			server.WithToolCapabilities(true),
		),
		StartupTime: startupStart,
	}

	a.registerTools()

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	logger := a.Logger

	s.AddTool(createGetStockDataTool(), handleGetStockData(a.MarketService, logger))
	s.AddTool(createGetFinancialReportTool(), handleGetFinancialReport(a.FundamentalsService, logger))
	s.AddTool(createFilterStocksTool(), handleFilterStocks(a.FundamentalsService, logger))
	s.AddTool(createGetVersionTool(), handleGetVersion())
}
