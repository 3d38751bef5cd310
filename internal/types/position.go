package types

import (
	"math"
	"strconv"
)

// CellKind is the value type held by a Cell.
type CellKind int

const (
	Empty CellKind = iota
	Text
	Integer
	Real
)

func (k CellKind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Real:
		return "real"
	default:
		return "empty"
	}
}

// Cell is one value of a position table.
type Cell struct {
	Kind CellKind
	Str  string
	Int  int64
	Num  float64
}

func TextCell(s string) Cell { return Cell{Kind: Text, Str: s} }
func IntCell(n int64) Cell { return Cell{Kind: Integer, Int: n} }
func RealCell(f float64) Cell { return Cell{Kind: Real, Num: f} }
func (c Cell) IsEmpty() bool { return c.Kind == Empty }
func (c Cell) IsNumeric() bool { return c.Kind == Integer || c.Kind == Real }
func (c Cell) IsText() bool { return c.Kind == Text }

// Float returns the numeric value of the cell; ok is false for text and empty cells.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case Integer:
		return float64(c.Int), true
	case Real:
		return c.Num, true
	}
	return math.NaN(), false
}

func (c Cell) String() string {
	switch c.Kind {
	case Text:
		return c.Str
	case Integer:
		return strconv.FormatInt(c.Int, 10)
	case Real:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	}
	return ""
}

// Row maps a column id to its cell. Missing keys read as empty cells.
type Row map[string]Cell

// PositionTable is a raw position export: ordered column ids and ordered rows.
// Column ids carry no meaning of their own.
type PositionTable struct {
	Columns []string
	Rows    []Row
}

// Cell returns the value of column col in row i.
func (t PositionTable) Cell(i int, col string) Cell {
	if i < 0 || i >= len(t.Rows) {
		return Cell{}
	}
	return t.Rows[i][col]
}

// Column returns the cells of col in row order.
func (t PositionTable) Column(col string) []Cell {
	out := make([]Cell, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[col]
	}
	return out
}

// Clone deep-copies the table so callers may not alias rows of the input.
func (t PositionTable) Clone() PositionTable {
	out := PositionTable{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}
