package recon

import (
	"strings"

	"position-desk/internal/types"
)

// labelOf returns the category label held by c, if any.
func labelOf(c types.Cell, fold bool) (string, bool) {
	if !c.IsText() {
		return "", false
	}
	s := c.Str
	if fold {
		s = strings.ToUpper(s)
	}
	switch s {
	case types.FX, types.CE, types.PE:
		return s, true
	}
	return "", false
}

func hasLabel(t types.PositionTable, r types.Row, fold bool) bool {
	for _, col := range t.Columns {
		if _, ok := labelOf(r[col], fold); ok {
			return true
		}
	}
	return false
}

// filterRows keeps rows carrying at least one category label, in input order.
// Headers, blank separators and subtotal lines fall out here.
func filterRows(t types.PositionTable, fold bool) types.PositionTable {
	out := types.PositionTable{Columns: t.Columns}
	for _, r := range t.Rows {
		if hasLabel(t, r, fold) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// pruneColumns drops columns that are empty in every row.
func pruneColumns(t types.PositionTable) types.PositionTable {
	keep := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		for _, r := range t.Rows {
			if !r[col].IsEmpty() {
				keep = append(keep, col)
				break
			}
		}
	}
	out := types.PositionTable{Columns: keep, Rows: make([]types.Row, len(t.Rows))}
	for i, r := range t.Rows {
		nr := make(types.Row, len(keep))
		for _, col := range keep {
			if c := r[col]; !c.IsEmpty() {
				nr[col] = c
			}
		}
		out.Rows[i] = nr
	}
	return out
}
