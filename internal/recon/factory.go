package recon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"position-desk/internal/interfaces"
	"position-desk/internal/store"
	"position-desk/internal/types"
)

func NewReconciler(opts Options) (interfaces.Reconciler, error) {
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// OptionsFromConfig maps the recon section of the config file.
func OptionsFromConfig(cfg *store.Config) (Options, error) {
	opts := Options{
		CaseInsensitive: cfg.Recon.CaseInsensitive,
		Rounding:        Rounding(cfg.Recon.Rounding),
		Overrides: types.ColumnMap{
			Category: cfg.Recon.Columns.Category,
			Quantity: cfg.Recon.Columns.Quantity,
			Exposure: cfg.Recon.Columns.Exposure,
			M2M:      cfg.Recon.Columns.M2M,
			Stock:    cfg.Recon.Columns.Stock,
		},
	}
	if cfg.Recon.Tolerance != "" {
		tol, err := decimal.NewFromString(cfg.Recon.Tolerance)
		if err != nil {
			return Options{}, fmt.Errorf("recon.tolerance: %w", err)
		}
		opts.Tolerance = tol
	}
	return opts, opts.validate()
}
