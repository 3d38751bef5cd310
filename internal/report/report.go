package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"position-desk/internal/types"
)

// Summary renders the reconciliation figures as the desk reads them.
func Summary(res types.ReconResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total Exposure: %s\n", res.Exposure)
	for _, label := range types.Categories {
		fmt.Fprintf(&b, "Sum for %s: %s\n", label, res.Sum(label))
	}
	fmt.Fprintf(&b, "Position: %s\n", res.Verdict)
	return b.String()
}

func WriteText(w io.Writer, res types.ReconResult) error {
	_, err := io.WriteString(w, Summary(res))
	return err
}

func WriteJSON(w io.Writer, res types.ReconResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteCSV writes the summary as field,value records.
func WriteCSV(w io.Writer, res types.ReconResult) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"field", "value"},
		{"exposure", res.Exposure},
		{"fx_sum", res.FXSum.String()},
		{"ce_sum", res.CESum.String()},
		{"pe_sum", res.PESum.String()},
		{"verdict", res.Verdict.String()},
		{"category_column", res.Columns.Category},
		{"quantity_column", res.Columns.Quantity},
		{"exposure_column", res.Columns.Exposure},
		{"m2m_column", res.Columns.M2M},
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

// Write dispatches on format: text, json or csv.
func Write(w io.Writer, format string, res types.ReconResult) error {
	switch strings.ToLower(format) {
	case "", "text":
		return WriteText(w, res)
	case "json":
		return WriteJSON(w, res)
	case "csv":
		return WriteCSV(w, res)
	}
	return fmt.Errorf("unknown report format %q", format)
}
