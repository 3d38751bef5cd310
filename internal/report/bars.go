package report

import (
	"fmt"
	"sort"
	"strings"

	"position-desk/internal/types"
)

// Bar is one stock's M2M on the chart.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// M2MBars returns the FX rows with a non-zero quantity, sorted ascending by M2M.
func M2MBars(res types.ReconResult) []Bar {
	cols := res.Columns
	if cols.Category == "" || cols.M2M == "" {
		return nil
	}

	var bars []Bar
	for i, r := range res.Positions.Rows {
		cat := r[cols.Category]
		if !cat.IsText() {
			continue
		}
		label := cat.Str
		if res.CaseInsensitive {
			label = strings.ToUpper(label)
		}
		if label != types.FX {
			continue
		}
		if qty, ok := r[cols.Quantity].Float(); !ok || qty == 0 {
			continue
		}
		m2m, ok := r[cols.M2M].Float()
		if !ok {
			m2m = 0
		}
		name := fmt.Sprintf("row %d", i+1)
		if cols.Stock != "" && !r[cols.Stock].IsEmpty() {
			name = r[cols.Stock].String()
		}
		bars = append(bars, Bar{Label: name, Value: m2m})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Value < bars[j].Value })
	return bars
}
