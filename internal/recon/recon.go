package recon

import (
	"context"
	"fmt"

	"position-desk/internal/types"
)

// Engine reconciles position tables. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	opts Options
}

func New(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid reconciliation options: %w", err)
	}
	if opts.Rounding == "" {
		opts.Rounding = RoundHalfEven
	}
	return &Engine{opts: opts}, nil
}

// Reconcile runs the pipeline with default options.
func Reconcile(table types.PositionTable) (types.ReconResult, error) {
	e := &Engine{opts: DefaultOptions()}
	return e.Reconcile(context.Background(), table)
}

// Reconcile filters label rows, prunes empty columns, identifies column roles,
// sums quantity per category and compares the absolute sums.
// The input table is never modified.
func (e *Engine) Reconcile(_ context.Context, table types.PositionTable) (types.ReconResult, error) {
	fold := e.opts.CaseInsensitive

	filtered := filterRows(table, fold)
	if len(filtered.Rows) == 0 {
		return types.ReconResult{}, &EmptyTableError{InputRows: len(table.Rows)}
	}
	positions := pruneColumns(filtered)

	cols, err := identify(positions, e.opts)
	if err != nil {
		return types.ReconResult{}, err
	}

	qty, err := sumBy(positions, cols.Category, cols.Quantity, fold, allLabels)
	if err != nil {
		return types.ReconResult{}, err
	}
	exp, err := sumBy(positions, cols.Category, cols.Exposure, fold, onlyFX)
	if err != nil {
		return types.ReconResult{}, err
	}

	lac := e.opts.round(exp[types.FX].Div(LacDivisor)).IntPart()

	return types.ReconResult{
		Exposure:    fmt.Sprintf("%d Lac", lac),
		ExposureLac: lac,
		FXSum:       qty[types.FX],
		CESum:       qty[types.CE],
		PESum:       qty[types.PE],
		Verdict:     verdict(qty[types.FX], qty[types.CE], qty[types.PE], e.opts.Tolerance),
		Columns:     cols,
		Positions:   positions,

		CaseInsensitive: fold,
	}, nil
}
