package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"position-desk/internal/app"
	"position-desk/internal/contracts"
	"position-desk/internal/dashboard"
	"position-desk/internal/journal"
	"position-desk/internal/logger"
	"position-desk/internal/metrics"
	"position-desk/internal/recon"
	"position-desk/internal/recon/reconobs"
	"position-desk/internal/sheet"
	"position-desk/internal/sheet/sheetobs"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file")
	addr := flag.String("addr", "", "listen address (overrides dashboard.addr)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintln(os.Stderr, "dashboard:", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg, err := app.Init("dashboard", configPath)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	ctx, cancel := app.SignalContext()
	defer cancel()

	opts, err := recon.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	engine, err := recon.NewReconciler(opts)
	if err != nil {
		return err
	}

	j := journal.New(cfg.Journal.Dir)
	if err := j.CompressOlder(cfg.Journal.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journal files", "error", err.Error())
	}

	svc := contracts.NewServiceFromConfig(cfg)
	params := func(now time.Time) contracts.Params { return contracts.ParamsFromConfig(cfg, now) }

	srv, err := dashboard.NewServer(dashboard.Deps{
		Loader:         sheetobs.Wrap(sheet.NewLoader()),
		Reconciler:     reconobs.Wrap(engine, "upload", reconobs.WithJournal(j)),
		Contracts:      svc,
		ContractParams: params,
		Registry:       metrics.Init(),
		MaxUploadBytes: int64(cfg.Dashboard.MaxUploadMB) << 20,
		ChartWidth:     cfg.Dashboard.ChartWidth,
		ChartHeight:    cfg.Dashboard.ChartHeight,
	})
	if err != nil {
		return err
	}

	if cfg.Contracts.Schedule != "" {
		sched := contracts.NewScheduler(svc, cfg.Contracts.OutputDir, params)
		if err := sched.Start(cfg.Contracts.Schedule); err != nil {
			return err
		}
		defer sched.Stop()
	}

	if addr == "" {
		addr = cfg.Dashboard.Addr
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx, addr) }()

	eodTick := time.NewTicker(time.Minute)
	defer eodTick.Stop()
loop:
	for {
		select {
		case err := <-errc:
			return err
		case <-eodTick.C:
			if j.ShouldSummarize() {
				summarize(ctx, j)
			}
		case <-ctx.Done():
			logger.Info(context.Background(), "Shutting down dashboard")
			break loop
		}
	}
	summarize(context.Background(), j)

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	return srv.Shutdown(shutdownCtx)
}

func summarize(ctx context.Context, j *journal.Journal) {
	p, err := j.SummarizeToday()
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to write journal summary", err)
		return
	}
	if p != "" {
		logger.Info(ctx, "Journal summary written", "path", p)
	}
}
