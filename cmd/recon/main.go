package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"position-desk/internal/app"
	"position-desk/internal/journal"
	"position-desk/internal/kite"
	"position-desk/internal/recon"
	"position-desk/internal/recon/reconobs"
	"position-desk/internal/report"
	"position-desk/internal/sheet"
	"position-desk/internal/sheet/sheetobs"
	"position-desk/internal/store"
	"position-desk/internal/types"
)

func main() {
	var (
		configPath      = flag.String("config", "config.yaml", "config file")
		file            = flag.String("file", "", "position file (.xls, .xlsx or .csv)")
		format          = flag.String("format", "text", "output format: text, json or csv")
		caseInsensitive = flag.Bool("case-insensitive", false, "match FX/CE/PE labels in any case")
		tolerance       = flag.String("tolerance", "", "allowed difference between the absolute sums")
		useKite         = flag.Bool("kite", false, "reconcile live Kite Connect net positions instead of a file")
	)
	flag.Parse()

	if err := run(*configPath, *file, *format, *caseInsensitive, *tolerance, *useKite); err != nil {
		fmt.Fprintln(os.Stderr, "recon:", err)
		if errors.Is(err, recon.ErrEmptyTable) || errors.Is(err, recon.ErrColumnIdentification) || errors.Is(err, recon.ErrAggregation) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(configPath, file, format string, caseInsensitive bool, tolerance string, useKite bool) error {
	cfg, err := app.Init("recon", configPath)
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
	if caseInsensitive {
		opts.CaseInsensitive = true
	}
	if tolerance != "" {
		if opts.Tolerance, err = decimal.NewFromString(tolerance); err != nil {
			return fmt.Errorf("-tolerance: %w", err)
		}
	}

	source := "cli"
	var table types.PositionTable
	switch {
	case useKite:
		source = "kite"
		table, err = kitePositions(ctx, cfg)
	case file != "":
		table, err = loadFile(ctx, file)
	default:
		return errors.New("either -file or -kite is required")
	}
	if err != nil {
		return err
	}

	engine, err := recon.NewReconciler(opts)
	if err != nil {
		return err
	}
	j := journal.New(cfg.Journal.Dir)
	res, err := reconobs.Wrap(engine, source, reconobs.WithJournal(j)).Reconcile(ctx, table)
	if err != nil {
		return err
	}
	return report.Write(os.Stdout, format, res)
}

func loadFile(ctx context.Context, path string) (types.PositionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.PositionTable{}, err
	}
	defer f.Close()
	return sheetobs.Wrap(sheet.NewLoader()).Load(ctx, filepath.Base(path), f)
}

func kitePositions(ctx context.Context, cfg *store.Config) (types.PositionTable, error) {
	src, err := kite.NewSourceFromEnv(cfg)
	if err != nil {
		return types.PositionTable{}, err
	}
	return src.Positions(ctx)
}
