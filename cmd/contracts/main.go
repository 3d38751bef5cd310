package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"position-desk/internal/app"
	"position-desk/internal/contracts"
	"position-desk/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "config file")
		dateFlag   = flag.String("date", "", "bhavcopy date YYYY-MM-DD (default: previous trading day)")
		month      = flag.String("month", "", "contract month code, e.g. DEC")
		oi         = flag.Float64("oi", 0, "open interest threshold in lots for far strikes")
		atm        = flag.Float64("atm", 0, "ATM deviation percent (1-20)")
		desc       = flag.Bool("desc", false, "sort tokens descending")
		file       = flag.String("file", "", "use a saved bhavcopy (.csv or .zip) instead of downloading")
		format     = flag.String("format", "txt", "output format: txt or csv")
		out        = flag.String("out", "", "write to this directory using the standard file name (default stdout)")
	)
	flag.Parse()

	cfg, err := app.Init("contracts", *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "contracts:", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := app.SignalContext()
	defer cancel()

	svc := contracts.NewServiceFromConfig(cfg)
	if *file != "" {
		svc = contracts.NewService(contracts.FileSource{Path: *file}, contracts.NewCalendar(cfg.Contracts.Holidays))
	}

	now := time.Now().In(contracts.IST)
	date := contracts.NewCalendar(cfg.Contracts.Holidays).PreviousTradingDay(now)
	if *dateFlag != "" {
		if date, err = time.ParseInLocation("2006-01-02", *dateFlag, contracts.IST); err != nil {
			fmt.Fprintln(os.Stderr, "contracts: -date must be YYYY-MM-DD")
			os.Exit(2)
		}
	}

	p := contracts.ParamsFromConfig(cfg, date)
	if *month != "" {
		p.Month = strings.ToUpper(*month)
	}
	if *oi > 0 {
		p.OIThreshold = *oi
	}
	if *atm > 0 {
		p.ATMPct = *atm
	}
	if *desc {
		p.Ascending = false
	}

	rep, err := svc.Build(ctx, "cli", date, p)
	if err != nil {
		fmt.Fprintln(os.Stderr, "contracts:", err)
		os.Exit(1)
	}
	if rep.Warning != "" {
		fmt.Fprintln(os.Stderr, rep.Warning)
	}

	write := contracts.WriteTXT
	if *format == "csv" {
		write = contracts.WriteCSV
	} else if *format != "txt" {
		fmt.Fprintf(os.Stderr, "contracts: unknown format %q\n", *format)
		os.Exit(2)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		if err := os.MkdirAll(*out, 0o755); err != nil {
			fmt.Fprintln(os.Stderr, "contracts:", err)
			os.Exit(1)
		}
		path := filepath.Join(*out, contracts.FileName(date, p, *format))
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "contracts:", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
		logger.Info(ctx, "Writing token list", "path", path)
	}
	if err := write(w, rep.Result); err != nil {
		fmt.Fprintln(os.Stderr, "contracts:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Futures: %d  Calls: %d  Puts: %d\n", rep.Futures, rep.Calls, rep.Puts)
}
