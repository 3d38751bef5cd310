package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"position-desk/internal/app"
	"position-desk/internal/margin"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "config file")
		in         = flag.String("in", "atm.xlsx", "workbook with stock and ATM strike columns")
		out        = flag.String("out", "", "output workbook (default: <in>_margin.xlsx)")
		expiry     = flag.String("expiry", "", "expiry as listed by the calculator, e.g. 26-DEC-2024 (overrides margin.expiry)")
		headless   = flag.Bool("headless", false, "run the browser headless (overrides margin.headless)")
	)
	flag.Parse()

	if err := run(*configPath, *in, *out, *expiry, *headless); err != nil {
		fmt.Fprintln(os.Stderr, "margin:", err)
		os.Exit(1)
	}
}

func run(configPath, in, out, expiry string, headless bool) error {
	cfg, err := app.Init("margin", configPath)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	ctx, cancel := app.SignalContext()
	defer cancel()

	mcfg := margin.ConfigFromStore(cfg)
	if expiry != "" {
		mcfg.Expiry = expiry
	}
	if headless {
		mcfg.Headless = true
	}
	if out == "" {
		out = strings.TrimSuffix(in, ".xlsx") + "_margin.xlsx"
	}

	wb, err := margin.OpenWorkbook(in)
	if err != nil {
		return err
	}
	defer wb.Close()
	jobs, err := wb.Jobs(cfg.Margin.StockColumn, cfg.Margin.StrikeColumn)
	if err != nil {
		return err
	}

	calc, err := margin.NewCalculator(ctx, mcfg)
	if err != nil {
		return err
	}
	defer calc.Close()

	sum, err := margin.Update(ctx, wb, calc, jobs, cfg.Margin.OutputColumn)
	// Keep whatever was priced before a cancellation.
	if saveErr := wb.SaveAs(out); saveErr != nil {
		return saveErr
	}
	fmt.Printf("Priced %d of %d rows (%d failed), saved %s\n", sum.Priced, sum.Rows, sum.Failed, out)
	return err
}
