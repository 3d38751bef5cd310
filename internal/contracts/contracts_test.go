package contracts

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"position-desk/internal/api"
)

const bhavCSV = `TradDt,FinInstrmNm,OptnTp,StrkPric,UndrlygPric,OpnIntrst,NewBrdLotQty
2024-12-02,RELIANCE24DECFUT,,,1300,1000000,500
2024-12-02,RELIANCE24DEC1200CE,CE,1200,1300,5000,500
2024-12-02,RELIANCE24DEC1000CE,CE,1000,1300,1000,500
2024-12-02,RELIANCE24DEC1100CE,CE,1100,1300,4000,500
2024-12-02,RELIANCE24DEC1400PE,PE,1400,1300,2000,500
2024-12-02,RELIANCE24DEC1300CE,CE,1300,1300,0,500
2024-12-02,RELIANCE24DEC1500CE,CE,1500,1300,90000,500
2024-12-02,NIFTY24DECFUT,,,24000,1000000,25
2024-12-02,NIFTY24DEC23000CE,CE,23000,24000,1000000,25
2024-12-02,M&M24DEC3000PE,PE,3000,2900,100,350
2024-12-02,BAJAJ-AUTO24DEC9000.5CE,CE,9000.5,9500,100,75
2024-12-02,TCS25JANFUT,,,4000,1000,175
`

func params() Params {
	return Params{Month: "DEC", OIThreshold: 4, ATMPct: 8, Ascending: true}
}

func mustRows(t *testing.T) []Row {
	t.Helper()
	rows, err := ParseBhavcopy(strings.NewReader(bhavCSV))
	if err != nil {
		t.Fatalf("Expected bhavcopy to parse, got %v", err)
	}
	return rows
}

func TestBuild(t *testing.T) {
	res, err := Build(mustRows(t), params())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// 1200CE near (>1196), 1100CE far with 8 lots, 1000CE far with 2 lots (dropped),
	// 1400CE/PE near (<1404), 1300CE near, 1500CE is ITM for a call (dropped).
	want := []string{
		"NRML|M&M24DEC3000CE",
		"NRML|M&M24DEC3000PE",
		"NRML|RELIANCE24DEC1100CE",
		"NRML|RELIANCE24DEC1100PE",
		"NRML|RELIANCE24DEC1200CE",
		"NRML|RELIANCE24DEC1200PE",
		"NRML|RELIANCE24DEC1300CE",
		"NRML|RELIANCE24DEC1300PE",
		"NRML|RELIANCE24DEC1400CE",
		"NRML|RELIANCE24DEC1400PE",
		"NRML|RELIANCE24DECFUT",
	}
	if !reflect.DeepEqual(res.Tokens, want) {
		t.Errorf("Expected tokens:\n%v\ngot:\n%v", want, res.Tokens)
	}
	if res.Futures != 1 || res.Calls != 5 || res.Puts != 5 {
		t.Errorf("Expected 1/5/5 counts, got %d/%d/%d", res.Futures, res.Calls, res.Puts)
	}
}

func TestBuildDescending(t *testing.T) {
	p := params()
	p.Ascending = false
	res, err := Build(mustRows(t), p)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Tokens[0] != "NRML|RELIANCE24DECFUT" {
		t.Errorf("Expected descending order, got %v", res.Tokens)
	}
}

func TestBuildErrors(t *testing.T) {
	rows := mustRows(t)

	if _, err := Build(nil, params()); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}

	p := params()
	p.Month = "MAR"
	if _, err := Build(rows, p); !errors.Is(err, ErrNoContracts) {
		t.Errorf("Expected ErrNoContracts, got %v", err)
	}

	p.Month = "JAN"
	if _, err := Build(rows, p); !errors.Is(err, ErrNoMatches) {
		t.Errorf("Expected ErrNoMatches for a futures-only month, got %v", err)
	}

	far := []Row{{Name: "ABC24DEC500CE", OptionType: "CE", Strike: 500, Underlying: 1000, OpenInterest: 100, LotSize: 100}}
	if _, err := Build(far, params()); !errors.Is(err, ErrNoRowsAfterOI) {
		t.Errorf("Expected ErrNoRowsAfterOI, got %v", err)
	}

	p = params()
	p.Month = "Dec"
	if _, err := Build(rows, p); err == nil {
		t.Error("Expected error for invalid month code")
	}
	p = params()
	p.ATMPct = 25
	if _, err := Build(rows, p); err == nil {
		t.Error("Expected error for ATM deviation out of range")
	}
}

func TestOpenIntZeroLot(t *testing.T) {
	if v := (Row{OpenInterest: 10}).OpenInt(); !math.IsInf(v, 1) {
		t.Errorf("Expected +Inf, got %f", v)
	}
	if v := (Row{}).OpenInt(); !math.IsNaN(v) {
		t.Errorf("Expected NaN, got %f", v)
	}
}

func zipped(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("Expected zip entry, got %v", err)
	}
	w.Write([]byte(content))
	if err := zw.Close(); err != nil {
		t.Fatalf("Expected zip to close, got %v", err)
	}
	return buf.Bytes()
}

func TestReadBhavcopyZip(t *testing.T) {
	rows, err := ReadBhavcopy(zipped(t, "BhavCopy_NSE_FO_0_0_0_20241202_F_0000.csv", bhavCSV))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 12 {
		t.Errorf("Expected 12 rows, got %d", len(rows))
	}
	if !math.IsNaN(rows[0].Strike) {
		t.Errorf("Expected blank strike to read as NaN, got %f", rows[0].Strike)
	}
}

func TestParseBhavcopyMissingColumn(t *testing.T) {
	if _, err := ParseBhavcopy(strings.NewReader("FinInstrmNm,OptnTp\nX,CE\n")); err == nil {
		t.Error("Expected error for missing columns")
	}
}

func TestFetcher(t *testing.T) {
	body := zipped(t, "fo.csv", bhavCSV)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fo/20241202.csv.zip" {
			w.Write(body)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(api.NewClient(), srv.URL+"/fo/{date}.csv.zip")
	rows, err := f.Fetch(context.Background(), time.Date(2024, 12, 2, 0, 0, 0, 0, IST))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 12 {
		t.Errorf("Expected 12 rows, got %d", len(rows))
	}

	_, err = f.Fetch(context.Background(), time.Date(2024, 12, 1, 0, 0, 0, 0, IST))
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData for a missing file, got %v", err)
	}
}

func TestCalendar(t *testing.T) {
	c := NewCalendar([]string{"2024-12-25"})
	cases := map[string]bool{
		"2024-12-23": true,  // Monday
		"2024-12-25": false, // holiday
		"2024-12-28": false, // Saturday
		"2024-12-29": false, // Sunday
	}
	for day, want := range cases {
		d, _ := time.ParseInLocation("2006-01-02", day, IST)
		if got := c.IsTradingDay(d); got != want {
			t.Errorf("%s: expected %v, got %v", day, want, got)
		}
	}

	mon, _ := time.ParseInLocation("2006-01-02", "2024-12-30", IST)
	if prev := c.PreviousTradingDay(mon); prev.Format("2006-01-02") != "2024-12-27" {
		t.Errorf("Expected 2024-12-27, got %s", prev.Format("2006-01-02"))
	}
}

type staticRows []Row

func (s staticRows) Fetch(context.Context, time.Time) ([]Row, error) { return s, nil }

func TestServiceWarnsOnNonTradingDay(t *testing.T) {
	svc := NewService(staticRows(mustRows(t)), NewCalendar(nil))
	sat := time.Date(2024, 12, 28, 10, 0, 0, 0, IST)

	rep, err := svc.Build(context.Background(), "test", sat, params())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rep.Warning == "" {
		t.Error("Expected a non-trading-day warning")
	}
	if len(rep.Tokens) != 11 {
		t.Errorf("Expected 11 tokens, got %d", len(rep.Tokens))
	}
}

func TestSchedulerRunOnce(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(staticRows(mustRows(t)), NewCalendar(nil))
	s := NewScheduler(svc, dir, func(time.Time) Params { return params() })
	s.now = func() time.Time { return time.Date(2024, 12, 2, 16, 0, 0, 0, IST) }

	path, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if filepath.Base(path) != "nse_derivatives_2024-12-02_DEC_atm8.txt" {
		t.Errorf("Unexpected file name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected file to exist, got %v", err)
	}
	if lines := strings.Split(string(data), "\n"); len(lines) != 11 || lines[0] != "NRML|M&M24DEC3000CE" {
		t.Errorf("Unexpected token file:\n%s", data)
	}

	s.now = func() time.Time { return time.Date(2024, 12, 1, 16, 0, 0, 0, IST) }
	if path, err := s.RunOnce(context.Background()); err != nil || path != "" {
		t.Errorf("Expected Sunday to be skipped, got %q, %v", path, err)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Result{Tokens: []string{"NRML|A24DECFUT"}}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if buf.String() != "All Columns\nNRML|A24DECFUT\n" {
		t.Errorf("Unexpected CSV %q", buf.String())
	}
}

func TestFileName(t *testing.T) {
	d := time.Date(2024, 12, 2, 0, 0, 0, 0, IST)
	p := params()
	p.ATMPct = 7.5
	if got := FileName(d, p, "csv"); got != "nse_derivatives_2024-12-02_DEC_atm7.5.csv" {
		t.Errorf("Unexpected file name %s", got)
	}
}
