package margin

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"position-desk/internal/logger"
	"position-desk/internal/metrics"
)

// Quoter prices the short-future / short-put / long-call basket for one stock.
type Quoter interface {
	Quote(ctx context.Context, stock, strike string) (float64, error)
}

var amountRe = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// ParseMargin reads a displayed amount such as "₹ 1,23,456.70".
func ParseMargin(s string) (float64, error) {
	m := amountRe.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("no amount in %q", s)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parse margin %q: %w", s, err)
	}
	return v, nil
}

type Summary struct {
	Rows   int
	Priced int
	Failed int
}

// Update prices every job and writes the result into outCol. A failed row is
// logged and left blank; only a cancelled context stops the run.
func Update(ctx context.Context, wb *Workbook, q Quoter, jobs []Job, outCol string) (Summary, error) {
	timer := logger.StartOperation(ctx, "margin.Update", "rows", len(jobs))
	ctx = timer.Context()

	sum := Summary{Rows: len(jobs)}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			timer.EndWithError(err, "priced", sum.Priced)
			return sum, err
		}

		v, err := q.Quote(ctx, job.Stock, job.Strike)
		if err == nil {
			err = wb.SetMargin(outCol, job.Row, v)
		}
		if err != nil {
			sum.Failed++
			metrics.MarginQuotes.WithLabelValues("error").Inc()
			logger.ErrorWithErr(ctx, "Margin lookup failed", err, "stock", job.Stock, "strike", job.Strike, "row", job.Row)
			continue
		}
		sum.Priced++
		metrics.MarginQuotes.WithLabelValues("ok").Inc()
		logger.Info(ctx, "Margin calculated", "stock", job.Stock, "strike", job.Strike, "margin", v)
	}

	timer.End("priced", sum.Priced, "failed", sum.Failed)
	return sum, nil
}
