package margin

import (
	"time"

	"position-desk/internal/store"
)

func ConfigFromStore(cfg *store.Config) Config {
	return Config{
		URL:            cfg.Margin.URL,
		Expiry:         cfg.Margin.Expiry,
		Headless:       cfg.Margin.Headless,
		StepWait:       time.Duration(cfg.Margin.StepWaitMillis) * time.Millisecond,
		SettleWait:     time.Duration(cfg.Margin.RowWaitMillis) * time.Millisecond,
		Timeout:        time.Duration(cfg.Margin.TimeoutSeconds) * time.Second,
		TotalSelectors: cfg.Margin.TotalSelectors,
	}
}
