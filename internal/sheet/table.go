package sheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"position-desk/internal/types"
)

// FromRows builds a PositionTable from raw rows. The first row is the header.
// Blank header cells become "Unnamed: <i>"; repeated names get ".1", ".2" suffixes.
func FromRows(rows [][]string) (types.PositionTable, error) {
	if len(rows) == 0 {
		return types.PositionTable{}, ErrNoHeader
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	if width == 0 {
		return types.PositionTable{}, ErrNoHeader
	}

	cols := headerNames(rows[0], width)
	t := types.PositionTable{Columns: cols, Rows: make([]types.Row, 0, len(rows)-1)}
	for _, raw := range rows[1:] {
		row := make(types.Row, len(raw))
		for j, v := range raw {
			if c := ParseCell(v); !c.IsEmpty() {
				row[cols[j]] = c
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func headerNames(header []string, width int) []string {
	cols := make([]string, width)
	used := make(map[string]bool, width)
	suffix := make(map[string]int)
	for i := range cols {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		for base := name; used[name]; {
			suffix[base]++
			name = fmt.Sprintf("%s.%d", base, suffix[base])
		}
		used[name] = true
		cols[i] = name
	}
	return cols
}

// Plain or comma-grouped numbers; both 1,200,000 and 12,00,000 groupings occur in exports.
var numericText = regexp.MustCompile(`^[+-]?(?:\d+|\d{1,3}(?:,\d{2,3})+)(?:\.\d+)?(?:[eE][+-]?\d+)?$`)

// ParseCell types one raw cell: blank is empty, whole numbers are integers,
// other numbers are reals, everything else is trimmed text.
func ParseCell(raw string) types.Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return types.Cell{}
	}
	if !numericText.MatchString(s) {
		return types.TextCell(s)
	}
	plain := strings.ReplaceAll(s, ",", "")
	if !strings.ContainsAny(plain, ".eE") {
		if n, err := strconv.ParseInt(plain, 10, 64); err == nil {
			return types.IntCell(n)
		}
	}
	if f, err := strconv.ParseFloat(plain, 64); err == nil {
		return types.RealCell(f)
	}
	return types.TextCell(s)
}
