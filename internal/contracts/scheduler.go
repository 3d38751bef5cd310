package contracts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"position-desk/internal/logger"
)

// Scheduler builds the token list on a cron schedule (IST) and writes it as TXT.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	params  func(now time.Time) Params
	outDir  string
	now     func() time.Time
}

// NewScheduler takes params as a function of the run time so the month follows the calendar.
func NewScheduler(service *Service, outDir string, params func(now time.Time) Params) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(IST)),
		service: service,
		params:  params,
		outDir:  outDir,
		now:     time.Now,
	}
}

func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			logger.ErrorWithErr(context.Background(), "Scheduled contract build failed", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule contract build %q: %w", spec, err)
	}
	s.cron.Start()
	logger.Info(context.Background(), "Contract build scheduled", "spec", spec, "output_dir", s.outDir)
	return nil
}

// Stop waits for a running build to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce builds today's list, skipping non-trading days, and returns the written path.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	now := s.now().In(IST)
	if !s.service.calendar.IsTradingDay(now) {
		logger.Info(ctx, "Skipping contract build on non-trading day", "date", now.Format("2006-01-02"))
		return "", nil
	}

	p := s.params(now)
	rep, err := s.service.Build(ctx, "schedule", now, p)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.outDir, FileName(now, p, "txt"))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteTXT(f, rep.Result); err != nil {
		return "", err
	}
	return path, f.Close()
}
