package interfaces

import (
	"context"
	"time"

	"position-desk/internal/types"
)

// CandleFeed supplies daily candles for a symbol between two dates, oldest first.
type CandleFeed interface {
	Candles(ctx context.Context, symbol string, start, end time.Time) ([]types.Candle, error)
}
