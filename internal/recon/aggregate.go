package recon

import (
	"math"

	"github.com/shopspring/decimal"

	"position-desk/internal/types"
)

// cellDecimal converts a quantity or exposure cell. Empty cells count as zero.
func cellDecimal(c types.Cell) (decimal.Decimal, bool) {
	switch c.Kind {
	case types.Empty:
		return decimal.Zero, true
	case types.Integer:
		return decimal.NewFromInt(c.Int), true
	case types.Real:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(c.Num), true
	}
	return decimal.Zero, false
}

// sumBy adds valCol over every row whose category label passes keep.
func sumBy(t types.PositionTable, catCol, valCol string, fold bool, keep func(label string) bool) (map[string]decimal.Decimal, error) {
	sums := make(map[string]decimal.Decimal, len(types.Categories))
	for _, label := range types.Categories {
		sums[label] = decimal.Zero
	}
	for i, r := range t.Rows {
		label, ok := labelOf(r[catCol], fold)
		if !ok || !keep(label) {
			continue
		}
		v, ok := cellDecimal(r[valCol])
		if !ok {
			return nil, &AggregationError{Column: valCol, Row: i, Value: r[valCol].String()}
		}
		sums[label] = sums[label].Add(v)
	}
	return sums, nil
}

func allLabels(string) bool { return true }

func onlyFX(label string) bool { return label == types.FX }

// verdict compares absolute category sums pairwise within tol.
func verdict(fx, ce, pe, tol decimal.Decimal) types.Verdict {
	a, b, c := fx.Abs(), ce.Abs(), pe.Abs()
	within := func(x, y decimal.Decimal) bool {
		if tol.IsZero() {
			return x.Equal(y)
		}
		return x.Sub(y).Abs().LessThanOrEqual(tol)
	}
	if within(a, b) && within(b, c) && within(a, c) {
		return types.Matched
	}
	return types.Mismatched
}
