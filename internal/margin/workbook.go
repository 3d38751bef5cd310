package margin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrMissingColumn = errors.New("column not found in header")

// Job is one sheet row to price: a stock and its ATM strike.
type Job struct {
	Row    int // 1-based sheet row
	Stock  string
	Strike string
}

// Workbook is the first sheet of an .xlsx with a header row.
type Workbook struct {
	f      *excelize.File
	sheet  string
	header []string
}

func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return newWorkbook(f)
}

func newWorkbook(f *excelize.File) (*Workbook, error) {
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	if len(rows) == 0 {
		f.Close()
		return nil, errors.New("workbook has no header row")
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return &Workbook{f: f, sheet: sheet, header: header}, nil
}

func (w *Workbook) column(name string) (int, bool) {
	for i, h := range w.header {
		if h == name {
			return i, true
		}
	}
	return 0, false
}

// Jobs lists the rows that name a stock. Rows with a blank stock are skipped.
func (w *Workbook) Jobs(stockCol, strikeCol string) ([]Job, error) {
	si, ok := w.column(stockCol)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, stockCol)
	}
	ki, ok := w.column(strikeCol)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, strikeCol)
	}

	rows, err := w.f.GetRows(w.sheet)
	if err != nil {
		return nil, err
	}
	var jobs []Job
	for i := 1; i < len(rows); i++ {
		stock := strings.TrimSpace(cell(rows[i], si))
		if stock == "" {
			continue
		}
		jobs = append(jobs, Job{Row: i + 1, Stock: stock, Strike: strings.TrimSpace(cell(rows[i], ki))})
	}
	return jobs, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// SetMargin writes v into the output column, appending the column header when
// the sheet does not have one yet.
func (w *Workbook) SetMargin(outCol string, row int, v float64) error {
	ci, ok := w.column(outCol)
	if !ok {
		ci = len(w.header)
		name, err := excelize.CoordinatesToCellName(ci+1, 1)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(w.sheet, name, outCol); err != nil {
			return err
		}
		w.header = append(w.header, outCol)
	}
	name, err := excelize.CoordinatesToCellName(ci+1, row)
	if err != nil {
		return err
	}
	return w.f.SetCellValue(w.sheet, name, v)
}

func (w *Workbook) SaveAs(path string) error {
	return w.f.SaveAs(path)
}

func (w *Workbook) Close() error {
	return w.f.Close()
}
