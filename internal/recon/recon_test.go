package recon

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"position-desk/internal/types"
)

// tbl builds a table from positional values: string -> text ("" -> empty),
// int -> integer, float64 -> real, nil -> empty.
func tbl(cols []string, rows ...[]any) types.PositionTable {
	t := types.PositionTable{Columns: cols}
	for _, vals := range rows {
		r := types.Row{}
		for i, v := range vals {
			switch x := v.(type) {
			case string:
				if x != "" {
					r[cols[i]] = types.TextCell(x)
				}
			case int:
				r[cols[i]] = types.IntCell(int64(x))
			case float64:
				r[cols[i]] = types.RealCell(x)
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

var threeCols = []string{"cat", "qty", "exp"}

func scenarioA() types.PositionTable {
	return tbl(threeCols,
		[]any{"FX", 100, 50000},
		[]any{"CE", -100, 0},
		[]any{"PE", -100, 0},
	)
}

// brokerExport mimics a POS export: a header line, data rows, a subtotal line,
// a product column, and a column that is only filled on the header line.
func brokerExport() types.PositionTable {
	cols := make([]string, 18)
	for i := range cols {
		cols[i] = "Unnamed: " + strconv.Itoa(i)
	}
	row := func(stock, product, cat string, qty int, price float64, exposure, m2m float64) []any {
		r := make([]any, 18)
		r[0], r[3], r[7], r[9], r[11], r[15], r[17] = stock, product, cat, qty, price, exposure, m2m
		return r
	}
	header := make([]any, 18)
	header[0], header[5], header[7], header[9], header[15], header[17] = "Symbol", "Remarks", "Type", "Net Qty", "Exposure", "M2M"
	subtotal := make([]any, 18)
	subtotal[0], subtotal[9], subtotal[17] = "Total", 0, 1500.0

	return tbl(cols,
		header,
		row("RELIANCE", "NRML", "FX", 500, 2900.5, 1450250.0, 12000.0),
		row("RELIANCE24DEC3000CE", "NRML", "CE", -500, 45.5, 0.0, -4000.0),
		row("RELIANCE24DEC2800PE", "NRML", "PE", -500, 30.0, 0.0, -2500.0),
		subtotal,
		row("INFY", "NRML", "FX", 400, 2374.375, 949750.0, -3000.0),
		row("INFY24DEC2400CE", "NRML", "CE", -400, 50.0, 0.0, 800.0),
		row("INFY24DEC2300PE", "NRML", "PE", -400, 20.0, 0.0, -1800.0),
	)
}

func mustEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := New(opts)
	if err != nil {
		t.Fatalf("Expected valid options, got %v", err)
	}
	return e
}

func TestReconcileScenarioA(t *testing.T) {
	res, err := Reconcile(scenarioA())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !res.FXSum.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected fx_sum 100, got %s", res.FXSum)
	}
	if !res.CESum.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("Expected ce_sum -100, got %s", res.CESum)
	}
	if !res.PESum.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("Expected pe_sum -100, got %s", res.PESum)
	}
	if res.Verdict != types.Matched {
		t.Errorf("Expected Matched, got %s", res.Verdict)
	}
	if res.Columns.Quantity != "qty" || res.Columns.Exposure != "exp" || res.Columns.M2M != "exp" {
		t.Errorf("Expected quantity qty and exposure exp, got %+v", res.Columns)
	}
	// 50000 / 100000 = 0.5 rounds to even.
	if res.Exposure != "0 Lac" {
		t.Errorf("Expected exposure '0 Lac', got %q", res.Exposure)
	}

	away := mustEngine(t, Options{Rounding: RoundHalfAway})
	res, err = away.Reconcile(context.Background(), scenarioA())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Exposure != "1 Lac" {
		t.Errorf("Expected exposure '1 Lac' rounding half away, got %q", res.Exposure)
	}
}

func TestReconcileQuantityOnlyTable(t *testing.T) {
	res, err := Reconcile(tbl([]string{"cat", "qty"},
		[]any{"FX", 100},
		[]any{"CE", -100},
		[]any{"PE", 100},
	))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Columns.Exposure != "qty" || res.Columns.M2M != "qty" {
		t.Errorf("Expected the lone numeric column for every role, got %+v", res.Columns)
	}
}

func TestReconcileScenarioB(t *testing.T) {
	table := scenarioA()
	table.Rows[2]["qty"] = types.IntCell(-90)

	res, err := Reconcile(table)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Verdict != types.Mismatched {
		t.Errorf("Expected Mismatched, got %s", res.Verdict)
	}
	if res.Verdict.String() != "Not Matched" {
		t.Errorf("Expected verdict text 'Not Matched', got %q", res.Verdict.String())
	}
}

func TestReconcileScenarioC(t *testing.T) {
	table := tbl(threeCols,
		[]any{"Symbol", "Qty", "Exposure"},
		[]any{"FUT", 100, 50000},
		[]any{"", nil, nil},
	)

	_, err := Reconcile(table)
	if !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("Expected ErrEmptyTable, got %v", err)
	}
	var ete *EmptyTableError
	if !errors.As(err, &ete) || ete.InputRows != 3 {
		t.Errorf("Expected EmptyTableError with 3 input rows, got %#v", err)
	}
}

func TestReconcileScenarioD(t *testing.T) {
	table := tbl([]string{"stock", "cat", "note"},
		[]any{"RELIANCE", "FX", "long"},
		[]any{"RELIANCE CE", "CE", "short"},
	)

	_, err := Reconcile(table)
	if !errors.Is(err, ErrColumnIdentification) {
		t.Fatalf("Expected ErrColumnIdentification, got %v", err)
	}
	var cie *ColumnIdentificationError
	if !errors.As(err, &cie) || cie.Role != "quantity" {
		t.Errorf("Expected quantity role in error, got %v", err)
	}
}

func TestReconcileNoCategoryColumn(t *testing.T) {
	// Labels appear, but never in a column of labels only.
	table := tbl([]string{"a", "qty"},
		[]any{"FX", 1},
		[]any{"CE leg", 2},
		[]any{"PE", 3},
	)
	// "CE leg" is not a label, so row 2 is filtered out and column a becomes label-only.
	res, err := Reconcile(table)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Columns.Category != "a" {
		t.Errorf("Expected category column a, got %q", res.Columns.Category)
	}

	mixed := tbl([]string{"a", "b", "qty"},
		[]any{"FX", "x", 1},
		[]any{"note", "CE", 2},
	)
	_, err = Reconcile(mixed)
	var cie *ColumnIdentificationError
	if !errors.As(err, &cie) || cie.Role != "category" {
		t.Errorf("Expected category identification error, got %v", err)
	}
}

func TestReconcileMissingCategorySumsToZero(t *testing.T) {
	table := tbl(threeCols,
		[]any{"FX", 100, 50000},
		[]any{"CE", -100, 0},
	)

	res, err := Reconcile(table)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !res.PESum.IsZero() {
		t.Errorf("Expected pe_sum 0, got %s", res.PESum)
	}
	if res.Verdict != types.Mismatched {
		t.Errorf("Expected Mismatched with missing PE leg, got %s", res.Verdict)
	}
}

func TestReconcileVerdictProperty(t *testing.T) {
	cases := []struct {
		fx, ce, pe int
		want       types.Verdict
	}{
		{100, -100, -100, types.Matched},
		{-75, 75, -75, types.Matched},
		{0, 0, 0, types.Matched},
		{100, 100, 100, types.Matched},
		{100, -100, -90, types.Mismatched},
		{100, -99, -100, types.Mismatched},
		{1, 0, 0, types.Mismatched},
	}
	for _, tc := range cases {
		table := tbl(threeCols,
			[]any{"FX", tc.fx, 0},
			[]any{"CE", tc.ce, 0},
			[]any{"PE", tc.pe, 0},
		)
		res, err := Reconcile(table)
		if err != nil {
			t.Fatalf("%v: expected no error, got %v", tc, err)
		}
		if res.Verdict != tc.want {
			t.Errorf("%v: expected %s, got %s", tc, tc.want, res.Verdict)
		}
	}
}

func TestReconcileSplitLegsAreSummed(t *testing.T) {
	table := tbl(threeCols,
		[]any{"FX", 60, 0},
		[]any{"CE", -100, 0},
		[]any{"FX", 40, 0},
		[]any{"PE", -30, 0},
		[]any{"PE", -70, 0},
	)
	res, err := Reconcile(table)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Verdict != types.Matched {
		t.Errorf("Expected Matched for split legs, got %s (fx=%s ce=%s pe=%s)", res.Verdict, res.FXSum, res.CESum, res.PESum)
	}
}

func TestReconcileIdempotentAndPure(t *testing.T) {
	table := brokerExport()
	before := table.Clone()

	first, err := Reconcile(table)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := Reconcile(table)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical results for identical input")
	}
	if !reflect.DeepEqual(before, table) {
		t.Error("Expected input table to be left untouched")
	}
}

func TestReconcileConcurrentCalls(t *testing.T) {
	e := mustEngine(t, DefaultOptions())
	table := brokerExport()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.Reconcile(context.Background(), table)
			if err != nil {
				errs <- err
				return
			}
			if res.Exposure != "24 Lac" {
				errs <- errors.New("unexpected exposure " + res.Exposure)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestReconcileBrokerExport(t *testing.T) {
	res, err := Reconcile(brokerExport())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := types.ColumnMap{
		Category: "Unnamed: 7",
		Quantity: "Unnamed: 9",
		Exposure: "Unnamed: 15",
		M2M:      "Unnamed: 17",
		Stock:    "Unnamed: 0",
	}
	if res.Columns != want {
		t.Errorf("Expected columns %+v, got %+v", want, res.Columns)
	}
	if res.Exposure != "24 Lac" || res.ExposureLac != 24 {
		t.Errorf("Expected exposure 24 Lac, got %q (%d)", res.Exposure, res.ExposureLac)
	}
	if !res.FXSum.Equal(decimal.NewFromInt(900)) || !res.CESum.Equal(decimal.NewFromInt(-900)) || !res.PESum.Equal(decimal.NewFromInt(-900)) {
		t.Errorf("Expected 900/-900/-900, got %s/%s/%s", res.FXSum, res.CESum, res.PESum)
	}
	if res.Verdict != types.Matched {
		t.Errorf("Expected Matched, got %s", res.Verdict)
	}
}

func TestReconcileFilterPreservesOrderAndPrunes(t *testing.T) {
	res, err := Reconcile(brokerExport())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := make([]string, 0, len(res.Positions.Rows))
	for _, r := range res.Positions.Rows {
		got = append(got, r["Unnamed: 0"].Str)
	}
	want := []string{
		"RELIANCE", "RELIANCE24DEC3000CE", "RELIANCE24DEC2800PE",
		"INFY", "INFY24DEC2400CE", "INFY24DEC2300PE",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected rows %v, got %v", want, got)
	}

	wantCols := []string{"Unnamed: 0", "Unnamed: 3", "Unnamed: 7", "Unnamed: 9", "Unnamed: 11", "Unnamed: 15", "Unnamed: 17"}
	if !reflect.DeepEqual(res.Positions.Columns, wantCols) {
		t.Errorf("Expected pruned columns %v, got %v", wantCols, res.Positions.Columns)
	}
}

func TestReconcileCaseSensitivity(t *testing.T) {
	table := tbl(threeCols,
		[]any{"fx", 100, 0},
		[]any{"Ce", -100, 0},
		[]any{"pe", -100, 0},
	)

	if _, err := Reconcile(table); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("Expected case-sensitive match to find nothing, got %v", err)
	}

	e := mustEngine(t, Options{CaseInsensitive: true})
	res, err := e.Reconcile(context.Background(), table)
	if err != nil {
		t.Fatalf("Expected no error with case folding, got %v", err)
	}
	if res.Verdict != types.Matched {
		t.Errorf("Expected Matched, got %s", res.Verdict)
	}
}

func TestReconcileTolerance(t *testing.T) {
	table := tbl(threeCols,
		[]any{"FX", 100.0, 0},
		[]any{"CE", -99.996, 0},
		[]any{"PE", -100.002, 0},
	)

	if res, _ := Reconcile(table); res.Verdict != types.Mismatched {
		t.Errorf("Expected exact comparison to report Mismatched, got %s", res.Verdict)
	}

	e := mustEngine(t, Options{Tolerance: decimal.RequireFromString("0.01")})
	res, err := e.Reconcile(context.Background(), table)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Verdict != types.Matched {
		t.Errorf("Expected Matched within tolerance, got %s", res.Verdict)
	}
}

func TestReconcileDecimalSumsAreExact(t *testing.T) {
	// 0.1 + 0.2 != 0.3 in float64
	table := tbl(threeCols,
		[]any{"FX", 0.1, 0},
		[]any{"FX", 0.2, 0},
		[]any{"CE", -0.3, 0},
		[]any{"PE", 0.3, 0},
	)
	res, err := Reconcile(table)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Verdict != types.Matched {
		t.Errorf("Expected Matched, got %s (fx=%s)", res.Verdict, res.FXSum)
	}
}

func TestReconcileExposureRounding(t *testing.T) {
	cases := []struct {
		exposure float64
		rounding Rounding
		want     string
	}{
		{50000, RoundHalfEven, "0 Lac"},
		{50000, RoundHalfAway, "1 Lac"},
		{150000, RoundHalfEven, "2 Lac"},
		{250000, RoundHalfEven, "2 Lac"},
		{250000, RoundHalfAway, "3 Lac"},
		{-250000, RoundHalfAway, "-3 Lac"},
		{2449999, RoundHalfEven, "24 Lac"},
	}
	for _, tc := range cases {
		table := tbl(threeCols,
			[]any{"FX", 100, tc.exposure},
			[]any{"CE", -100, 0.0},
			[]any{"PE", -100, 0.0},
		)
		e := mustEngine(t, Options{Rounding: tc.rounding})
		res, err := e.Reconcile(context.Background(), table)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if res.Exposure != tc.want {
			t.Errorf("%v with %s: expected %q, got %q", tc.exposure, tc.rounding, tc.want, res.Exposure)
		}
	}
}

func TestReconcileAggregationErrors(t *testing.T) {
	table := tbl([]string{"stock", "cat", "qty"},
		[]any{"RELIANCE", "FX", 100},
		[]any{"RELIANCE CE", "CE", -100},
	)
	e := mustEngine(t, Options{Overrides: types.ColumnMap{Quantity: "stock"}})
	_, err := e.Reconcile(context.Background(), table)
	if !errors.Is(err, ErrAggregation) {
		t.Fatalf("Expected ErrAggregation for text quantities, got %v", err)
	}
	var ae *AggregationError
	if !errors.As(err, &ae) || ae.Column != "stock" || ae.Row != 0 || ae.Value != "RELIANCE" {
		t.Errorf("Expected error pointing at stock row 0, got %v", err)
	}

	nan := tbl(threeCols,
		[]any{"FX", math.NaN(), 0},
		[]any{"CE", -100, 0},
	)
	if _, err := Reconcile(nan); !errors.Is(err, ErrAggregation) {
		t.Errorf("Expected ErrAggregation for NaN quantity, got %v", err)
	}
}

func TestReconcileOverrideMissingColumn(t *testing.T) {
	e := mustEngine(t, Options{Overrides: types.ColumnMap{Quantity: "Unnamed: 9"}})
	_, err := e.Reconcile(context.Background(), scenarioA())
	var cie *ColumnIdentificationError
	if !errors.As(err, &cie) || cie.Role != "quantity" {
		t.Errorf("Expected quantity identification error, got %v", err)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Rounding: "ceil"}); err == nil {
		t.Error("Expected error for unknown rounding")
	}
	if _, err := New(Options{Tolerance: decimal.NewFromInt(-1)}); err == nil {
		t.Error("Expected error for negative tolerance")
	}
}
