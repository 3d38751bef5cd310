package contracts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

var (
	ErrNoData        = errors.New("no data available for the selected date")
	ErrNoContracts   = errors.New("no contracts found for month")
	ErrNoMatches     = errors.New("no matching data after applying filters")
	ErrNoRowsAfterOI = errors.New("no data after applying OI threshold filter")
)

// Months are the contract month codes used in instrument names.
var Months = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

const product = "NRML|"

// Params select which contracts make the token list.
type Params struct {
	Month       string
	OIThreshold float64
	// ATMPct is the distance from the underlying, in percent, beyond which a
	// strike must clear OIThreshold to be kept.
	ATMPct    float64
	Ascending bool
}

// MonthCode returns the code for t's month.
func MonthCode(t time.Time) string {
	return Months[t.Month()-1]
}

func (p Params) validate() error {
	valid := false
	for _, m := range Months {
		if p.Month == m {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown month %q", p.Month)
	}
	if p.ATMPct < 1 || p.ATMPct > 20 {
		return fmt.Errorf("ATM deviation must be between 1 and 20, got %.2f", p.ATMPct)
	}
	if p.OIThreshold < 1 {
		return fmt.Errorf("OI threshold must be at least 1, got %.2f", p.OIThreshold)
	}
	return nil
}

// Result is a sorted token list with counts by instrument kind.
type Result struct {
	Tokens  []string `json:"tokens"`
	Futures int      `json:"futures"`
	Calls   int      `json:"calls"`
	Puts    int      `json:"puts"`
}

// Build selects the month's futures and out-of-the-money options and expands
// every kept option strike into both its CE and PE tokens.
func Build(rows []Row, p Params) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{}, ErrNoData
	}

	var month []Row
	for _, r := range rows {
		if strings.Contains(r.Name, p.Month) {
			month = append(month, r)
		}
	}
	if len(month) == 0 {
		return Result{}, fmt.Errorf("%w %s", ErrNoContracts, p.Month)
	}

	var futures, otm []Row
	for _, r := range month {
		if strings.Contains(r.Name, p.Month+"FUT") {
			futures = append(futures, r)
		}
		if (r.OptionType == "PE" && r.Strike >= r.Underlying) || (r.OptionType == "CE" && r.Strike <= r.Underlying) {
			otm = append(otm, r)
		}
	}
	if len(otm) == 0 {
		return Result{}, ErrNoMatches
	}

	dev := p.ATMPct / 100
	var kept []Row
	for _, r := range otm {
		far := r.Strike <= r.Underlying-dev*r.Underlying || r.Strike >= r.Underlying+dev*r.Underlying
		if !far || r.OpenInt() > p.OIThreshold {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return Result{}, ErrNoRowsAfterOI
	}

	seen := make(map[string]bool)
	var tokens []string
	add := func(tok string) {
		if seen[tok] || strings.Contains(tok, "NIFTY") || strings.Contains(tok, ".") {
			return
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	for _, r := range kept {
		if len(r.Name) < 2 {
			continue
		}
		base := r.Name[:len(r.Name)-2]
		add(product + base + "CE")
		add(product + base + "PE")
	}
	for _, r := range futures {
		add(product + r.Name)
	}

	if p.Ascending {
		sort.Strings(tokens)
	} else {
		sort.Sort(sort.Reverse(sort.StringSlice(tokens)))
	}
	return count(tokens), nil
}

func count(tokens []string) Result {
	res := Result{Tokens: tokens}
	for _, t := range tokens {
		switch {
		case strings.HasSuffix(t, "FUT"):
			res.Futures++
		case strings.HasSuffix(t, "CE"):
			res.Calls++
		case strings.HasSuffix(t, "PE"):
			res.Puts++
		}
	}
	return res
}

// FileName names a download the way the desk files them.
func FileName(date time.Time, p Params, ext string) string {
	return fmt.Sprintf("nse_derivatives_%s_%s_atm%s.%s", date.Format("2006-01-02"), p.Month, trimFloat(p.ATMPct), ext)
}

func trimFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

// WriteTXT writes one token per line.
func WriteTXT(w io.Writer, res Result) error {
	_, err := io.WriteString(w, strings.Join(res.Tokens, "\n"))
	return err
}

// WriteCSV writes the tokens under an "All Columns" header.
func WriteCSV(w io.Writer, res Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"All Columns"}); err != nil {
		return err
	}
	for _, t := range res.Tokens {
		if err := cw.Write([]string{t}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
