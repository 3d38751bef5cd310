package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Recon struct {
		CaseInsensitive bool   `yaml:"case_insensitive"`
		Tolerance       string `yaml:"tolerance"`
		Rounding        string `yaml:"rounding"`
		Columns         struct {
			Category string `yaml:"category"`
			Quantity string `yaml:"quantity"`
			Exposure string `yaml:"exposure"`
			M2M      string `yaml:"m2m"`
			Stock    string `yaml:"stock"`
		} `yaml:"columns"`
	} `yaml:"recon"`
	Dashboard struct {
		Addr        string `yaml:"addr"`
		MaxUploadMB int    `yaml:"max_upload_mb"`
		ChartWidth  int    `yaml:"chart_width"`
		ChartHeight int    `yaml:"chart_height"`
	} `yaml:"dashboard"`
	Kite struct {
		Exchanges []string `yaml:"exchanges"`
	} `yaml:"kite"`
	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
	Contracts struct {
		Month          string   `yaml:"month"`
		OIThreshold    float64  `yaml:"oi_threshold"`
		ATMPct         float64  `yaml:"atm_pct"`
		SortAscending  *bool    `yaml:"sort_ascending"`
		BhavcopyURL    string   `yaml:"bhavcopy_url"`
		Holidays       []string `yaml:"holidays"`
		Schedule       string   `yaml:"schedule"`
		OutputDir      string   `yaml:"output_dir"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
	} `yaml:"contracts"`
	Backtest struct {
		Symbol     string  `yaml:"symbol"`
		Start      string  `yaml:"start"`
		End        string  `yaml:"end"`
		Cash       float64 `yaml:"cash"`
		Stake      int     `yaml:"stake"`
		Fast       int     `yaml:"fast"`
		Slow       int     `yaml:"slow"`
		MA         string  `yaml:"ma"`
		DataSource string  `yaml:"data_source"`
		CSVPath    string  `yaml:"csv_path"`
	} `yaml:"backtest"`
	Margin struct {
		URL            string   `yaml:"url"`
		Expiry         string   `yaml:"expiry"`
		Headless       bool     `yaml:"headless"`
		StepWaitMillis int      `yaml:"step_wait_ms"`
		RowWaitMillis  int      `yaml:"row_wait_ms"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		TotalSelectors []string `yaml:"total_selectors"`
		StockColumn    string   `yaml:"stock_column"`
		StrikeColumn   string   `yaml:"strike_column"`
		OutputColumn   string   `yaml:"output_column"`
	} `yaml:"margin"`
}

func (c *Config) Validate() error {
	if c.Recon.Rounding != "half_even" && c.Recon.Rounding != "half_away" {
		return fmt.Errorf("invalid recon.rounding '%s': must be 'half_even' or 'half_away'", c.Recon.Rounding)
	}
	if c.Dashboard.MaxUploadMB <= 0 || c.Dashboard.MaxUploadMB > 256 {
		return fmt.Errorf("dashboard.max_upload_mb must be between 1-256, got %d", c.Dashboard.MaxUploadMB)
	}
	if c.Contracts.ATMPct < 1 || c.Contracts.ATMPct > 20 {
		return fmt.Errorf("contracts.atm_pct must be between 1-20, got %.2f", c.Contracts.ATMPct)
	}
	if c.Contracts.OIThreshold < 1 {
		return fmt.Errorf("contracts.oi_threshold must be at least 1, got %.2f", c.Contracts.OIThreshold)
	}
	for _, h := range c.Contracts.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return fmt.Errorf("contracts.holidays entry '%s' is not YYYY-MM-DD", h)
		}
	}
	if c.Backtest.Fast <= 0 || c.Backtest.Slow <= c.Backtest.Fast {
		return fmt.Errorf("backtest.fast must be positive and below backtest.slow, got %d/%d", c.Backtest.Fast, c.Backtest.Slow)
	}
	if c.Backtest.MA != "EMA" && c.Backtest.MA != "SMA" {
		return fmt.Errorf("backtest.ma must be 'EMA' or 'SMA', got '%s'", c.Backtest.MA)
	}
	if c.Backtest.DataSource != "YAHOO" && c.Backtest.DataSource != "CSV" {
		return fmt.Errorf("backtest.data_source must be 'YAHOO' or 'CSV', got '%s'", c.Backtest.DataSource)
	}
	if c.Backtest.DataSource == "CSV" && c.Backtest.CSVPath == "" {
		return errors.New("backtest.csv_path is required when data_source is CSV")
	}
	return nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.Recon.Rounding == "" {
		c.Recon.Rounding = "half_even"
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "journal"
	}
	if c.Dashboard.Addr == "" {
		c.Dashboard.Addr = ":8080"
	}
	if c.Dashboard.MaxUploadMB == 0 {
		c.Dashboard.MaxUploadMB = 20
	}
	if c.Dashboard.ChartWidth == 0 {
		c.Dashboard.ChartWidth = 900
	}
	if c.Dashboard.ChartHeight == 0 {
		c.Dashboard.ChartHeight = 360
	}
	if c.Contracts.OIThreshold == 0 {
		c.Contracts.OIThreshold = 4
	}
	if c.Contracts.ATMPct == 0 {
		c.Contracts.ATMPct = 8
	}
	if c.Contracts.SortAscending == nil {
		asc := true
		c.Contracts.SortAscending = &asc
	}
	if c.Contracts.BhavcopyURL == "" {
		c.Contracts.BhavcopyURL = "https://nsearchives.nseindia.com/content/fo/BhavCopy_NSE_FO_0_0_0_{date}_F_0000.csv.zip"
	}
	if c.Contracts.OutputDir == "" {
		c.Contracts.OutputDir = "tokens"
	}
	if c.Contracts.TimeoutSeconds == 0 {
		c.Contracts.TimeoutSeconds = 45
	}
	if c.Backtest.Symbol == "" {
		c.Backtest.Symbol = "TATAMOTORS.NS"
	}
	if c.Backtest.Start == "" {
		c.Backtest.Start = "2023-01-01"
	}
	if c.Backtest.End == "" {
		c.Backtest.End = "2025-02-28"
	}
	if c.Backtest.Cash == 0 {
		c.Backtest.Cash = 100000
	}
	if c.Backtest.Stake == 0 {
		c.Backtest.Stake = 1
	}
	if c.Backtest.Fast == 0 {
		c.Backtest.Fast = 20
	}
	if c.Backtest.Slow == 0 {
		c.Backtest.Slow = 100
	}
	if c.Backtest.MA == "" {
		c.Backtest.MA = "EMA"
	}
	if c.Backtest.DataSource == "" {
		c.Backtest.DataSource = "YAHOO"
	}
	if c.Margin.URL == "" {
		c.Margin.URL = "https://zerodha.com/margin-calculator/SPAN/"
	}
	if c.Margin.StepWaitMillis == 0 {
		c.Margin.StepWaitMillis = 1000
	}
	if c.Margin.RowWaitMillis == 0 {
		c.Margin.RowWaitMillis = 3000
	}
	if c.Margin.TimeoutSeconds == 0 {
		c.Margin.TimeoutSeconds = 60
	}
	if len(c.Margin.TotalSelectors) == 0 {
		c.Margin.TotalSelectors = []string{
			"span.val.total",
			".margin-calculator-wrap .total",
			".total-row .total-value",
			".grand-total-row .value",
			"span.total:not(.label)",
		}
	}
	if c.Margin.StockColumn == "" {
		c.Margin.StockColumn = "stocks"
	}
	if c.Margin.StrikeColumn == "" {
		c.Margin.StrikeColumn = "atm"
	}
	if c.Margin.OutputColumn == "" {
		c.Margin.OutputColumn = "Margin"
	}
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

// LoadConfigOrDefault falls back to Default when path does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return LoadConfig(path)
}
