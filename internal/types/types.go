package types

import "time"

// Candle is one OHLCV bar of a daily price series.
type Candle struct {
	Ts                          time.Time
	Open, High, Low, Close, Vol float64
}

// Fill is an executed backtest order.
type Fill struct {
	Time  time.Time `json:"time"`
	Side  string    `json:"side"`
	Qty   int       `json:"qty"`
	Price float64   `json:"price"`
	PnL   float64   `json:"pnl,omitempty"`
}

// BacktestResult summarises one strategy run over a candle series.
type BacktestResult struct {
	Symbol         string  `json:"symbol"`
	Bars           int     `json:"bars"`
	StartValue     float64 `json:"start_value"`
	FinalValue     float64 `json:"final_value"`
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	Sharpe         float64 `json:"sharpe"`
	Fills          []Fill  `json:"fills"`
}
