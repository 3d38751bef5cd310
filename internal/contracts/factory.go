package contracts

import (
	"time"

	"position-desk/internal/api"
	"position-desk/internal/store"
)

func NewServiceFromConfig(cfg *store.Config) *Service {
	client := api.NewClient(
		api.WithTimeout(time.Duration(cfg.Contracts.TimeoutSeconds)*time.Second),
		api.WithLogging(true),
	)
	return NewService(NewFetcher(client, cfg.Contracts.BhavcopyURL), NewCalendar(cfg.Contracts.Holidays))
}

// ParamsFromConfig fills the month from now when the config leaves it blank.
func ParamsFromConfig(cfg *store.Config, now time.Time) Params {
	month := cfg.Contracts.Month
	if month == "" {
		month = MonthCode(now.In(IST))
	}
	return Params{
		Month:       month,
		OIThreshold: cfg.Contracts.OIThreshold,
		ATMPct:      cfg.Contracts.ATMPct,
		Ascending:   *cfg.Contracts.SortAscending,
	}
}
