package backtest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"position-desk/internal/api"
	"position-desk/internal/interfaces"
	"position-desk/internal/types"
)

// CSVFeed reads Date,Open,High,Low,Close,Volume files (Yahoo download layout).
type CSVFeed struct {
	Path string
}

var _ interfaces.CandleFeed = (*CSVFeed)(nil)

func (f *CSVFeed) Candles(_ context.Context, _ string, start, end time.Time) ([]types.Candle, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	all, err := ParseCSV(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return between(all, start, end), nil
}

// ParseCSV reads candles by header name; rows with missing prices ("null") are skipped.
func ParseCSV(r io.Reader) ([]types.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing %q column", col)
		}
	}

	var out []types.Candle
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := time.Parse("2006-01-02", strings.TrimSpace(field(rec, idx["date"])))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c := types.Candle{Ts: ts}
		ok := true
		for _, p := range []struct {
			col string
			dst *float64
		}{{"open", &c.Open}, {"high", &c.High}, {"low", &c.Low}, {"close", &c.Close}} {
			v, err := strconv.ParseFloat(strings.TrimSpace(field(rec, idx[p.col])), 64)
			if err != nil {
				ok = false
				break
			}
			*p.dst = v
		}
		if !ok {
			continue
		}
		if i, has := idx["volume"]; has {
			c.Vol, _ = strconv.ParseFloat(strings.TrimSpace(field(rec, i)), 64)
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Ts.Before(out[j].Ts) })
	return out, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// between keeps candles in [start, end); zero bounds are open.
func between(cs []types.Candle, start, end time.Time) []types.Candle {
	out := cs[:0:0]
	for _, c := range cs {
		if !start.IsZero() && c.Ts.Before(start) {
			continue
		}
		if !end.IsZero() && !c.Ts.Before(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// YahooFeed reads daily bars from the Yahoo Finance chart API.
type YahooFeed struct {
	client  *api.Client
	baseURL string
}

var _ interfaces.CandleFeed = (*YahooFeed)(nil)

const yahooBaseURL = "https://query1.finance.yahoo.com"

func NewYahooFeed(client *api.Client, baseURL string) *YahooFeed {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooFeed{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *YahooFeed) Candles(ctx context.Context, symbol string, start, end time.Time) ([]types.Candle, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(strings.ToUpper(symbol)), q.Encode())

	resp, err := y.client.GETWithRetry(ctx, u, nil, api.YahooFinanceHeaders())
	if err != nil {
		return nil, fmt.Errorf("yahoo chart request failed: %w", err)
	}

	var data chartResponse
	if err := resp.ParseJSON(&data); err != nil {
		return nil, err
	}
	if data.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error %s: %s", data.Chart.Error.Code, data.Chart.Error.Description)
	}
	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo returned no data for %s", symbol)
	}

	res := data.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	at := func(s []*float64, i int) (float64, bool) {
		if i >= len(s) || s[i] == nil {
			return 0, false
		}
		return *s[i], true
	}

	out := make([]types.Candle, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o, ok1 := at(quote.Open, i)
		h, ok2 := at(quote.High, i)
		l, ok3 := at(quote.Low, i)
		c, ok4 := at(quote.Close, i)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		v, _ := at(quote.Volume, i)
		out = append(out, types.Candle{Ts: time.Unix(ts, 0).UTC(), Open: o, High: h, Low: l, Close: c, Vol: v})
	}
	return out, nil
}
