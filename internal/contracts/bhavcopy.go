package contracts

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Row is one F&O bhavcopy line in the UDiFF layout.
type Row struct {
	Name         string  // FinInstrmNm
	OptionType   string  // OptnTp: CE, PE or blank for futures
	Strike       float64 // StrkPric
	Underlying   float64 // UndrlygPric
	OpenInterest float64 // OpnIntrst
	LotSize      float64 // NewBrdLotQty
}

// OpenInt is open interest in lots. A zero lot size yields +Inf for positive
// interest and NaN otherwise, so the row only passes an OI filter when it has interest.
func (r Row) OpenInt() float64 {
	if r.LotSize == 0 {
		if r.OpenInterest > 0 {
			return math.Inf(1)
		}
		return math.NaN()
	}
	return r.OpenInterest / r.LotSize
}

var bhavColumns = []string{"FinInstrmNm", "OptnTp", "StrkPric", "UndrlygPric", "OpnIntrst", "NewBrdLotQty"}

// ReadBhavcopy accepts the CSV or the zip NSE publishes it in.
func ReadBhavcopy(data []byte) ([]Row, error) {
	if bytes.HasPrefix(data, []byte("PK")) {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("open bhavcopy zip: %w", err)
		}
		for _, f := range zr.File {
			if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", f.Name, err)
			}
			defer rc.Close()
			return ParseBhavcopy(rc)
		}
		return nil, errors.New("bhavcopy zip holds no csv file")
	}
	return ParseBhavcopy(bytes.NewReader(data))
}

// ParseBhavcopy reads the columns it needs by header name. Blank numbers read as NaN.
func ParseBhavcopy(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bhavcopy header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range bhavColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("bhavcopy is missing column %s", col)
		}
	}

	get := func(rec []string, col string) string {
		if i := idx[col]; i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	num := func(rec []string, col string) float64 {
		v, err := strconv.ParseFloat(get(rec, col), 64)
		if err != nil {
			return math.NaN()
		}
		return v
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read bhavcopy: %w", err)
		}
		rows = append(rows, Row{
			Name:         get(rec, "FinInstrmNm"),
			OptionType:   get(rec, "OptnTp"),
			Strike:       num(rec, "StrkPric"),
			Underlying:   num(rec, "UndrlygPric"),
			OpenInterest: num(rec, "OpnIntrst"),
			LotSize:      num(rec, "NewBrdLotQty"),
		})
	}
	return rows, nil
}
