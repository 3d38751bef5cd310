package recon

import (
	"position-desk/internal/types"
)

// detection is the state a column rule inspects.
type detection struct {
	table    types.PositionTable
	fold     bool
	category string
	numeric  []string
}

// ColumnRule proposes a column id for one role, or reports no match.
type ColumnRule struct {
	Name string
	Find func(d *detection) (string, bool)
}

// firstMatch evaluates rules in priority order.
func firstMatch(d *detection, rules []ColumnRule) (col, rule string, ok bool) {
	for _, r := range rules {
		if col, ok := r.Find(d); ok {
			return col, r.Name, true
		}
	}
	return "", "", false
}

var (
	categoryRules = []ColumnRule{
		{Name: "label-subset", Find: labelSubsetColumn},
	}
	quantityRules = []ColumnRule{
		{Name: "adjacent-numeric", Find: adjacentNumericColumn},
		{Name: "first-numeric", Find: firstNumericColumn},
	}
	exposureRules = []ColumnRule{
		{Name: "second-last-numeric", Find: secondLastNumericColumn},
		{Name: "last-numeric", Find: lastNumericColumn},
	}
	m2mRules = []ColumnRule{
		{Name: "last-numeric", Find: lastNumericColumn},
	}
	stockRules = []ColumnRule{
		{Name: "leading-text", Find: leadingTextColumn},
	}
)

// labelSubsetColumn picks the first column whose non-empty values are all category labels.
func labelSubsetColumn(d *detection) (string, bool) {
	for _, col := range d.table.Columns {
		seen := false
		all := true
		for _, r := range d.table.Rows {
			c := r[col]
			if c.IsEmpty() {
				continue
			}
			if _, ok := labelOf(c, d.fold); !ok {
				all = false
				break
			}
			seen = true
		}
		if seen && all {
			return col, true
		}
	}
	return "", false
}

func isNumericColumn(t types.PositionTable, col string) bool {
	seen := false
	for _, r := range t.Rows {
		c := r[col]
		if c.IsEmpty() {
			continue
		}
		if !c.IsNumeric() {
			return false
		}
		seen = true
	}
	return seen
}

func numericColumns(t types.PositionTable) []string {
	var out []string
	for _, col := range t.Columns {
		if isNumericColumn(t, col) {
			out = append(out, col)
		}
	}
	return out
}

// valueColumns drops the quantity column from the exposure and M2M candidates.
// A table whose only numeric column is the quantity keeps it.
func valueColumns(numeric []string, quantity string) []string {
	out := make([]string, 0, len(numeric))
	for _, col := range numeric {
		if col != quantity {
			out = append(out, col)
		}
	}
	if len(out) == 0 {
		return numeric
	}
	return out
}

func adjacentNumericColumn(d *detection) (string, bool) {
	for i, col := range d.table.Columns {
		if col != d.category {
			continue
		}
		if i+1 < len(d.table.Columns) && isNumericColumn(d.table, d.table.Columns[i+1]) {
			return d.table.Columns[i+1], true
		}
		return "", false
	}
	return "", false
}

func firstNumericColumn(d *detection) (string, bool) {
	if len(d.numeric) == 0 {
		return "", false
	}
	return d.numeric[0], true
}

func lastNumericColumn(d *detection) (string, bool) {
	if len(d.numeric) == 0 {
		return "", false
	}
	return d.numeric[len(d.numeric)-1], true
}

func secondLastNumericColumn(d *detection) (string, bool) {
	if len(d.numeric) < 2 {
		return "", false
	}
	return d.numeric[len(d.numeric)-2], true
}

// leadingTextColumn looks for the instrument name among the first three columns.
func leadingTextColumn(d *detection) (string, bool) {
	for i, col := range d.table.Columns {
		if i >= 3 {
			break
		}
		if col == d.category || isNumericColumn(d.table, col) {
			continue
		}
		return col, true
	}
	return "", false
}

func hasColumn(t types.PositionTable, col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// resolveRole applies an override when one is set, else the rule chain.
func resolveRole(d *detection, role, override string, rules []ColumnRule) (string, error) {
	if override != "" {
		if !hasColumn(d.table, override) {
			return "", &ColumnIdentificationError{Role: role, Reason: "configured column " + override + " is absent or empty"}
		}
		return override, nil
	}
	col, _, ok := firstMatch(d, rules)
	if !ok {
		return "", &ColumnIdentificationError{Role: role, Reason: "no candidate column"}
	}
	return col, nil
}

// identify derives every column role of a filtered, pruned table.
func identify(t types.PositionTable, opts Options) (types.ColumnMap, error) {
	d := &detection{table: t, fold: opts.CaseInsensitive}
	var m types.ColumnMap
	var err error

	if m.Category, err = resolveRole(d, "category", opts.Overrides.Category, categoryRules); err != nil {
		if opts.Overrides.Category == "" {
			err = &ColumnIdentificationError{Role: "category", Reason: "no column holds only FX/CE/PE labels"}
		}
		return m, err
	}
	d.category = m.Category
	d.numeric = numericColumns(t)

	if m.Quantity, err = resolveRole(d, "quantity", opts.Overrides.Quantity, quantityRules); err != nil {
		if opts.Overrides.Quantity == "" {
			err = &ColumnIdentificationError{Role: "quantity", Reason: "table has no numeric column"}
		}
		return m, err
	}
	d.numeric = valueColumns(d.numeric, m.Quantity)
	if m.M2M, err = resolveRole(d, "m2m", opts.Overrides.M2M, m2mRules); err != nil {
		return m, err
	}
	if m.Exposure, err = resolveRole(d, "exposure", opts.Overrides.Exposure, exposureRules); err != nil {
		return m, err
	}
	// The stock column only labels the chart; a miss is not an error.
	if opts.Overrides.Stock != "" && hasColumn(t, opts.Overrides.Stock) {
		m.Stock = opts.Overrides.Stock
	} else if col, _, ok := firstMatch(d, stockRules); ok {
		m.Stock = col
	}
	return m, nil
}
