// Package common provides shared utilities for cnstock
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for cnstock
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Data        DataConfig    `toml:"data"`
	Clients     ClientsConfig `toml:"clients"`
	Chart       ChartConfig   `toml:"chart"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	StaticDir   string   `toml:"static_dir"`   // Front-end assets served at "/" when present
	CORSOrigins []string `toml:"cors_origins"` // Origins allowed to call the /get_* routes
}

// DataConfig locates the on-disk inputs: the symbol directory and the fundamentals corpus.
type DataConfig struct {
	SymbolsPath     string `toml:"symbols_path"`
	FundamentalsDir string `toml:"fundamentals_dir"`
	FilePrefix      string `toml:"file_prefix"` // e.g. "业绩报表_" -> 业绩报表_20231231.csv
	FirstYear       int    `toml:"first_year"`
	LastYear        int    `toml:"last_year"`
}

// Years returns the fiscal years expected in the fundamentals corpus, ascending.
func (c *DataConfig) Years() []int {
	if c.LastYear < c.FirstYear {
		return nil
	}
	years := make([]int, 0, c.LastYear-c.FirstYear+1)
	for y := c.FirstYear; y <= c.LastYear; y++ {
		years = append(years, y)
	}
	return years
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Eastmoney EastmoneyConfig `toml:"eastmoney"`
}

// EastmoneyConfig holds market-data provider configuration
type EastmoneyConfig struct {
	HistoryURL string `toml:"history_url"`
	QuoteURL   string `toml:"quote_url"`
	RateLimit  int    `toml:"rate_limit"`
	Timeout    string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EastmoneyConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ChartConfig controls turnover histogram rendering.
type ChartConfig struct {
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	Bins          int    `toml:"bins"`
	FontPath      string `toml:"font_path"` // TTF with CJK glyphs; go-chart's default font has none
	MaxConcurrent int    `toml:"max_concurrent"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5000,
			StaticDir:   "static",
			CORSOrigins: []string{"http://localhost:5000"},
		},
		Data: DataConfig{
			SymbolsPath:     "data/stock_dict_a.yaml",
			FundamentalsDir: "financial_reports",
			FilePrefix:      "业绩报表_",
			FirstYear:       2020,
			LastYear:        2024,
		},
		Clients: ClientsConfig{
			Eastmoney: EastmoneyConfig{
				HistoryURL: "https://push2his.eastmoney.com/api/qt/stock/kline/get",
				QuoteURL:   "https://push2.eastmoney.com/api/qt/stock/get",
				RateLimit:  5,
				Timeout:    "30s",
			},
		},
		Chart: ChartConfig{
			Width:         1200,
			Height:        600,
			Bins:          30,
			MaxConcurrent: 4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console"},
			FilePath: "./logs/cnstock.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first when present.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Existing environment variables win over .env entries
	_ = godotenv.Load()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CNSTOCK_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("CNSTOCK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("CNSTOCK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if origins := os.Getenv("CNSTOCK_CORS_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		config.Server.CORSOrigins = parts
	}

	if level := os.Getenv("CNSTOCK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dir := os.Getenv("CNSTOCK_FUNDAMENTALS_DIR"); dir != "" {
		config.Data.FundamentalsDir = dir
	}

	if path := os.Getenv("CNSTOCK_SYMBOLS_PATH"); path != "" {
		config.Data.SymbolsPath = path
	}

	if path := os.Getenv("CNSTOCK_DATA_PATH"); path != "" {
		config.Data.FundamentalsDir = filepath.Join(path, "financial_reports")
		config.Data.SymbolsPath = filepath.Join(path, "stock_dict_a.yaml")
	}

	if font := os.Getenv("CNSTOCK_CHART_FONT"); font != "" {
		config.Chart.FontPath = font
	}

	if timeout := os.Getenv("CNSTOCK_UPSTREAM_TIMEOUT"); timeout != "" {
		config.Clients.Eastmoney.Timeout = timeout
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolvePaths anchors relative data, static and log paths at baseDir.
func (c *Config) ResolvePaths(baseDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	c.Data.SymbolsPath = resolve(c.Data.SymbolsPath)
	c.Data.FundamentalsDir = resolve(c.Data.FundamentalsDir)
	c.Server.StaticDir = resolve(c.Server.StaticDir)
	c.Logging.FilePath = resolve(c.Logging.FilePath)
}
