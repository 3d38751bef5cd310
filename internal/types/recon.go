package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Category labels of a position row.
const (
	FX = "FX" // underlying / futures
	CE = "CE" // call option
	PE = "PE" // put option
)

// Categories is the fixed label set in reporting order.
var Categories = []string{FX, CE, PE}

// Verdict is the outcome of comparing the three category sums.
type Verdict int

const (
	Mismatched Verdict = iota
	Matched
)

func (v Verdict) String() string {
	if v == Matched {
		return "Matched"
	}
	return "Not Matched"
}

func (v Verdict) MarshalJSON() ([]byte, error) { return json.Marshal(v.String()) }

// ColumnMap records which column ids were chosen for each role.
type ColumnMap struct {
	Category string `json:"category"`
	Quantity string `json:"quantity"`
	Exposure string `json:"exposure"`
	M2M      string `json:"m2m"`
	Stock    string `json:"stock,omitempty"`
}

// ReconResult is the reconciliation verdict with its supporting figures.
type ReconResult struct {
	Exposure    string          `json:"exposure"`
	ExposureLac int64           `json:"exposure_lac"`
	FXSum       decimal.Decimal `json:"fx_sum"`
	CESum       decimal.Decimal `json:"ce_sum"`
	PESum       decimal.Decimal `json:"pe_sum"`
	Verdict     Verdict         `json:"verdict"`
	Columns     ColumnMap       `json:"columns"`
	// CaseInsensitive records whether labels were matched case-insensitively.
	CaseInsensitive bool `json:"case_insensitive"`
	// Positions is the filtered, pruned table the figures were computed from.
	Positions PositionTable `json:"-"`
}

// Sum returns the quantity sum for a category label.
func (r ReconResult) Sum(label string) decimal.Decimal {
	switch label {
	case FX:
		return r.FXSum
	case CE:
		return r.CESum
	case PE:
		return r.PESum
	}
	return decimal.Zero
}
