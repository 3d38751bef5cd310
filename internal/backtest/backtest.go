package backtest

import (
	"errors"
	"fmt"
	"math"

	"position-desk/internal/ta"
	"position-desk/internal/types"
)

var ErrNotEnoughBars = errors.New("not enough bars for the slow average")

// Params configure a crossover run.
type Params struct {
	Cash  float64
	Stake int
	Fast  int
	Slow  int
	// MA is "EMA" or "SMA".
	MA string
}

func (p Params) validate() error {
	if p.Cash <= 0 {
		return fmt.Errorf("cash must be positive, got %.2f", p.Cash)
	}
	if p.Stake <= 0 {
		return fmt.Errorf("stake must be positive, got %d", p.Stake)
	}
	if p.Fast <= 0 || p.Slow <= p.Fast {
		return fmt.Errorf("fast must be positive and below slow, got %d/%d", p.Fast, p.Slow)
	}
	if p.MA != "EMA" && p.MA != "SMA" {
		return fmt.Errorf("unknown moving average %q", p.MA)
	}
	return nil
}

func (p Params) averages(closes []float64) (fast, slow []float64) {
	if p.MA == "SMA" {
		return ta.SMASeries(closes, p.Fast), ta.SMASeries(closes, p.Slow)
	}
	return ta.EMASeries(closes, p.Fast), ta.EMASeries(closes, p.Slow)
}

type side int

const (
	none side = iota
	buy
	sell
)

// Run trades a long-only golden cross: buy Stake when the fast average crosses
// above the slow one while flat, sell it when the fast crosses back below.
// Orders fill at the next bar's open; a pending order blocks new signals.
// Buys the cash cannot cover are rejected.
func Run(symbol string, candles []types.Candle, p Params) (types.BacktestResult, error) {
	if err := p.validate(); err != nil {
		return types.BacktestResult{}, err
	}
	if len(candles) <= p.Slow {
		return types.BacktestResult{}, fmt.Errorf("%w: have %d, need more than %d", ErrNotEnoughBars, len(candles), p.Slow)
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	fast, slow := p.averages(closes)

	cash := p.Cash
	held := 0
	entry := 0.0
	pending := none
	values := make([]float64, 0, len(candles))
	var fills []types.Fill

	for i, c := range candles {
		switch pending {
		case buy:
			cost := float64(p.Stake) * c.Open
			if cost <= cash {
				cash -= cost
				held = p.Stake
				entry = c.Open
				fills = append(fills, types.Fill{Time: c.Ts, Side: "BUY", Qty: p.Stake, Price: c.Open})
			}
		case sell:
			cash += float64(held) * c.Open
			fills = append(fills, types.Fill{Time: c.Ts, Side: "SELL", Qty: held, Price: c.Open, PnL: float64(held) * (c.Open - entry)})
			held = 0
		}
		pending = none

		values = append(values, cash+float64(held)*c.Close)

		switch {
		case held == 0 && ta.CrossUp(fast, slow, i):
			pending = buy
		case held > 0 && ta.CrossDown(fast, slow, i):
			pending = sell
		}
	}

	final := values[len(values)-1]
	return types.BacktestResult{
		Symbol:         symbol,
		Bars:           len(candles),
		StartValue:     p.Cash,
		FinalValue:     final,
		TotalReturnPct: math.Log(final/p.Cash) * 100,
		MaxDrawdownPct: MaxDrawdownPct(values),
		Sharpe:         Sharpe(values, 252),
		Fills:          fills,
	}, nil
}

// MaxDrawdownPct is the largest peak-to-trough fall of a value series, in percent.
func MaxDrawdownPct(values []float64) float64 {
	peak, dd := math.Inf(-1), 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
		if peak > 0 {
			dd = math.Max(dd, (peak-v)/peak*100)
		}
	}
	return dd
}

// Sharpe annualises the mean over the deviation of period returns, risk-free 0.
// A flat series scores 0.
func Sharpe(values []float64, periodsPerYear int) float64 {
	if len(values) < 3 {
		return 0
	}
	rets := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		rets = append(rets, values[i]/values[i-1]-1)
	}
	sd := ta.StdDev(rets, len(rets))
	if len(rets) == 0 || sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return ta.SMA(rets, len(rets)) / sd * math.Sqrt(float64(periodsPerYear))
}
