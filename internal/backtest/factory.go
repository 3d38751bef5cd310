package backtest

import (
	"fmt"
	"time"

	"position-desk/internal/api"
	"position-desk/internal/interfaces"
	"position-desk/internal/store"
)

func NewFeed(cfg *store.Config) interfaces.CandleFeed {
	if cfg.Backtest.DataSource == "CSV" {
		return &CSVFeed{Path: cfg.Backtest.CSVPath}
	}
	client := api.NewClient(api.WithTimeout(30*time.Second), api.WithLogging(true))
	return NewYahooFeed(client, "")
}

func ParamsFromConfig(cfg *store.Config) Params {
	return Params{
		Cash:  cfg.Backtest.Cash,
		Stake: cfg.Backtest.Stake,
		Fast:  cfg.Backtest.Fast,
		Slow:  cfg.Backtest.Slow,
		MA:    cfg.Backtest.MA,
	}
}

// Window parses the configured start and end dates.
func Window(cfg *store.Config) (start, end time.Time, err error) {
	if start, err = time.Parse("2006-01-02", cfg.Backtest.Start); err != nil {
		return start, end, fmt.Errorf("backtest.start: %w", err)
	}
	if end, err = time.Parse("2006-01-02", cfg.Backtest.End); err != nil {
		return start, end, fmt.Errorf("backtest.end: %w", err)
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("backtest.end %s is not after start %s", cfg.Backtest.End, cfg.Backtest.Start)
	}
	return start, end, nil
}
