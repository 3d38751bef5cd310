package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"position-desk/internal/types"
)

func sampleResult() types.ReconResult {
	cols := []string{"stock", "cat", "qty", "m2m"}
	rows := []types.Row{
		{"stock": types.TextCell("RELIANCE"), "cat": types.TextCell("FX"), "qty": types.IntCell(500), "m2m": types.RealCell(1200.5)},
		{"stock": types.TextCell("RELIANCE CE"), "cat": types.TextCell("CE"), "qty": types.IntCell(-500), "m2m": types.RealCell(-300)},
		{"stock": types.TextCell("TCS"), "cat": types.TextCell("FX"), "qty": types.IntCell(0), "m2m": types.RealCell(50)},
		{"stock": types.TextCell("INFY"), "cat": types.TextCell("FX"), "qty": types.IntCell(400), "m2m": types.RealCell(-800)},
		{"stock": types.TextCell("<script>"), "cat": types.TextCell("fx"), "qty": types.IntCell(1), "m2m": types.IntCell(10)},
	}
	return types.ReconResult{
		Exposure:    "24 Lac",
		ExposureLac: 24,
		FXSum:       decimal.NewFromInt(900),
		CESum:       decimal.NewFromInt(-900),
		PESum:       decimal.NewFromInt(-900),
		Verdict:     types.Matched,
		Columns:     types.ColumnMap{Category: "cat", Quantity: "qty", Exposure: "m2m", M2M: "m2m", Stock: "stock"},
		Positions:   types.PositionTable{Columns: cols, Rows: rows},

		CaseInsensitive: true,
	}
}

func TestSummary(t *testing.T) {
	got := Summary(sampleResult())
	want := "Total Exposure: 24 Lac\n" +
		"Sum for FX: 900\n" +
		"Sum for CE: -900\n" +
		"Sum for PE: -900\n" +
		"Position: Matched\n"
	if got != want {
		t.Errorf("Expected summary:\n%s\ngot:\n%s", want, got)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "json", sampleResult()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if decoded["verdict"] != "Matched" {
		t.Errorf("Expected verdict Matched, got %v", decoded["verdict"])
	}
	if decoded["exposure"] != "24 Lac" {
		t.Errorf("Expected exposure 24 Lac, got %v", decoded["exposure"])
	}
	if decoded["fx_sum"] != "900" {
		t.Errorf("Expected fx_sum \"900\", got %v", decoded["fx_sum"])
	}
	if _, ok := decoded["Positions"]; ok {
		t.Error("Expected positions to be left out of the JSON summary")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "CSV", sampleResult()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Expected valid CSV, got %v", err)
	}
	got := map[string]string{}
	for _, r := range records[1:] {
		got[r[0]] = r[1]
	}
	if got["verdict"] != "Matched" || got["pe_sum"] != "-900" || got["m2m_column"] != "m2m" {
		t.Errorf("Unexpected CSV summary: %v", got)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, "xml", sampleResult()); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestM2MBars(t *testing.T) {
	bars := M2MBars(sampleResult())

	want := []Bar{
		{Label: "INFY", Value: -800},
		{Label: "<script>", Value: 10},
		{Label: "RELIANCE", Value: 1200.5},
	}
	if len(bars) != len(want) {
		t.Fatalf("Expected %d bars, got %d: %v", len(want), len(bars), bars)
	}
	for i := range want {
		if bars[i] != want[i] {
			t.Errorf("Bar %d: expected %v, got %v", i, want[i], bars[i])
		}
	}
}

func TestM2MBarsCaseSensitive(t *testing.T) {
	res := sampleResult()
	res.CaseInsensitive = false

	bars := M2MBars(res)
	if len(bars) != 2 {
		t.Fatalf("Expected 2 bars without the lower-case row, got %v", bars)
	}
	for _, b := range bars {
		if b.Label == "<script>" {
			t.Errorf("Expected the fx row to be skipped when labels are case-sensitive, got %v", bars)
		}
	}
}

func TestM2MBarsWithoutStockColumn(t *testing.T) {
	res := sampleResult()
	res.Columns.Stock = ""

	bars := M2MBars(res)
	if len(bars) == 0 || bars[0].Label != "row 4" {
		t.Errorf("Expected row-number labels, got %v", bars)
	}
}

func TestBarChartSVG(t *testing.T) {
	svg := string(BarChartSVG(M2MBars(sampleResult()), 600, 300, "M2M"))

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("Expected an svg document, got %q", svg)
	}
	if n := strings.Count(svg, "class='bar'"); n != 3 {
		t.Errorf("Expected 3 bars, got %d", n)
	}
	if strings.Contains(svg, "<script>") {
		t.Error("Expected labels to be escaped")
	}
	if !strings.Contains(svg, "rotate(-90") {
		t.Error("Expected rotated stock labels")
	}
}

func TestBarChartSVGEmpty(t *testing.T) {
	svg := string(BarChartSVG(nil, 0, 0, "M2M"))
	if !strings.Contains(svg, "No data") {
		t.Errorf("Expected placeholder text, got %q", svg)
	}
	if !strings.Contains(svg, "width='900'") {
		t.Error("Expected default width")
	}
}
