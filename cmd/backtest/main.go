package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"position-desk/internal/app"
	"position-desk/internal/backtest"
	"position-desk/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "config file")
		symbol     = flag.String("symbol", "", "ticker (overrides backtest.symbol)")
		csvPath    = flag.String("csv", "", "read candles from this CSV instead of the configured source")
		asJSON     = flag.Bool("json", false, "print the result as JSON")
	)
	flag.Parse()

	cfg, err := app.Init("backtest", *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "backtest:", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := app.SignalContext()
	defer cancel()

	if *symbol != "" {
		cfg.Backtest.Symbol = *symbol
	}
	if *csvPath != "" {
		cfg.Backtest.DataSource = "CSV"
		cfg.Backtest.CSVPath = *csvPath
	}

	start, end, err := backtest.Window(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "backtest:", err)
		os.Exit(2)
	}

	timer := logger.StartOperation(ctx, "backtest.Run", "symbol", cfg.Backtest.Symbol, "source", cfg.Backtest.DataSource)
	candles, err := backtest.NewFeed(cfg).Candles(timer.Context(), cfg.Backtest.Symbol, start, end)
	if err != nil {
		timer.EndWithError(err)
		fmt.Fprintln(os.Stderr, "backtest:", err)
		os.Exit(1)
	}
	res, err := backtest.Run(cfg.Backtest.Symbol, candles, backtest.ParamsFromConfig(cfg))
	if err != nil {
		timer.EndWithError(err)
		fmt.Fprintln(os.Stderr, "backtest:", err)
		os.Exit(1)
	}
	timer.End("fills", len(res.Fills), "final_value", res.FinalValue)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(res)
		return
	}

	for _, f := range res.Fills {
		line := fmt.Sprintf("%s %-4s %d @ %.2f", f.Time.Format("2006-01-02"), f.Side, f.Qty, f.Price)
		if f.Side == "SELL" {
			line += fmt.Sprintf("  pnl %.2f", f.PnL)
		}
		fmt.Println(line)
	}
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Symbol:            %s (%d bars)\n", res.Symbol, res.Bars)
	fmt.Printf("Starting Value:    %.2f\n", res.StartValue)
	fmt.Printf("Final Value:       %.2f\n", res.FinalValue)
	fmt.Printf("Total Return:      %.2f%%\n", res.TotalReturnPct)
	fmt.Printf("Max Drawdown:      %.2f%%\n", res.MaxDrawdownPct)
	fmt.Printf("Sharpe Ratio:      %.2f\n", res.Sharpe)
}
