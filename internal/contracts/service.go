package contracts

import (
	"context"
	"time"

	"position-desk/internal/logger"
	"position-desk/internal/metrics"
)

// RowSource supplies bhavcopy rows for a trading date.
type RowSource interface {
	Fetch(ctx context.Context, date time.Time) ([]Row, error)
}

// Service fetches the bhavcopy for a date and builds the token list.
type Service struct {
	source   RowSource
	calendar *Calendar
}

func NewService(source RowSource, calendar *Calendar) *Service {
	return &Service{source: source, calendar: calendar}
}

// Report is a built token list with the date it was built for.
type Report struct {
	Result
	Date    time.Time `json:"date"`
	Params  Params    `json:"params"`
	Warning string    `json:"warning,omitempty"`
}

// Build runs the selection for date. trigger names the caller in metrics
// (http, schedule, cli). A non-trading date is a warning, not an error.
func (s *Service) Build(ctx context.Context, trigger string, date time.Time, p Params) (Report, error) {
	timer := logger.StartOperation(ctx, "contracts.Build",
		"date", date.Format("2006-01-02"),
		"month", p.Month,
		"trigger", trigger,
	)
	ctx = timer.Context()

	rep := Report{Date: date, Params: p}
	if !s.calendar.IsTradingDay(date) {
		rep.Warning = "Selected date (" + date.Format("2006-01-02") + ") may not be a trading day. Results may be unavailable."
		logger.Warn(ctx, "Building contracts for a non-trading day", "date", date.Format("2006-01-02"))
	}

	rows, err := s.source.Fetch(ctx, date)
	if err == nil {
		rep.Result, err = Build(rows, p)
	}
	if err != nil {
		metrics.ContractBuilds.WithLabelValues(trigger, "error").Inc()
		timer.EndWithError(err)
		return rep, err
	}

	metrics.ContractBuilds.WithLabelValues(trigger, "ok").Inc()
	metrics.ContractTokens.WithLabelValues("FUT").Set(float64(rep.Futures))
	metrics.ContractTokens.WithLabelValues("CE").Set(float64(rep.Calls))
	metrics.ContractTokens.WithLabelValues("PE").Set(float64(rep.Puts))
	logger.Info(ctx, "Built contract token list",
		"date", date.Format("2006-01-02"),
		"month", p.Month,
		"tokens", len(rep.Tokens),
		"futures", rep.Futures,
		"calls", rep.Calls,
		"puts", rep.Puts,
	)
	timer.End("tokens", len(rep.Tokens))
	return rep, nil
}
