package recon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"position-desk/internal/types"
)

// Rounding selects how the exposure figure is rounded to whole Lacs.
type Rounding string

const (
	// RoundHalfEven matches Python's round(): 0.5 -> 0, 1.5 -> 2, 2.5 -> 2.
	RoundHalfEven Rounding = "half_even"
	// RoundHalfAway rounds .5 away from zero: 0.5 -> 1, -0.5 -> -1.
	RoundHalfAway Rounding = "half_away"
)

// LacDivisor converts rupees to Lacs.
var LacDivisor = decimal.NewFromInt(100000)

// Options tune a Reconciler. The zero value is case-sensitive, exact-equality, half-even.
type Options struct {
	CaseInsensitive bool
	// Tolerance is the largest allowed difference between absolute category sums.
	// Zero means exact equality.
	Tolerance decimal.Decimal
	Rounding  Rounding
	// Overrides pins column roles to fixed ids, bypassing detection for that role.
	Overrides types.ColumnMap
}

func DefaultOptions() Options {
	return Options{Rounding: RoundHalfEven}
}

func (o Options) validate() error {
	switch o.Rounding {
	case "", RoundHalfEven, RoundHalfAway:
	default:
		return fmt.Errorf("unknown rounding %q", o.Rounding)
	}
	if o.Tolerance.IsNegative() {
		return fmt.Errorf("tolerance must not be negative, got %s", o.Tolerance)
	}
	return nil
}

func (o Options) round(d decimal.Decimal) decimal.Decimal {
	if o.Rounding == RoundHalfAway {
		return d.Round(0)
	}
	return d.RoundBank(0)
}
