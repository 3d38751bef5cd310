package reconobs

import (
	"context"
	"errors"
	"time"

	"position-desk/internal/interfaces"
	"position-desk/internal/journal"
	"position-desk/internal/logger"
	"position-desk/internal/metrics"
	"position-desk/internal/recon"
	"position-desk/internal/trace"
	"position-desk/internal/types"
)

type observableReconciler struct {
	reconciler interfaces.Reconciler
	source     string
	journal    *journal.Journal
}

var _ interfaces.Reconciler = (*observableReconciler)(nil)

type Option func(*observableReconciler)

// WithJournal records every outcome in j.
func WithJournal(j *journal.Journal) Option {
	return func(o *observableReconciler) { o.journal = j }
}

// Wrap adds a span, logs and metrics around a Reconciler.
// source names where tables come from (upload, kite, cli) in logs and metrics.
func Wrap(r interfaces.Reconciler, source string, opts ...Option) interfaces.Reconciler {
	o := &observableReconciler{reconciler: r, source: source}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *observableReconciler) record(ctx context.Context, e journal.Entry) {
	if o.journal == nil {
		return
	}
	e.TraceID, _, _ = trace.GetTraceFields(ctx)
	if err := o.journal.Append(e); err != nil {
		logger.Warn(ctx, "Failed to journal reconciliation", "error", err.Error())
	}
}

func (o *observableReconciler) Reconcile(ctx context.Context, table types.PositionTable) (types.ReconResult, error) {
	ctx, span := trace.StartSpan(ctx, "recon.Reconcile")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Starting reconciliation",
		"source", o.source,
		"rows", len(table.Rows),
		"columns", len(table.Columns),
	)

	res, err := o.reconciler.Reconcile(ctx, table)
	metrics.ReconDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ReconFailures.WithLabelValues(o.source, failureKind(err)).Inc()
		logger.ErrorWithErrSkip(ctx, 1, "Reconciliation failed", err,
			"source", o.source,
			"rows", len(table.Rows),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		o.record(ctx, journal.Entry{Source: o.source, Rows: len(table.Rows), Error: err.Error()})
		return res, err
	}

	metrics.Reconciliations.WithLabelValues(o.source, res.Verdict.String()).Inc()
	logger.Reconciliation(ctx, o.source, res.Verdict.String(),
		"exposure", res.Exposure,
		"fx_sum", res.FXSum.String(),
		"ce_sum", res.CESum.String(),
		"pe_sum", res.PESum.String(),
		"category_column", res.Columns.Category,
		"quantity_column", res.Columns.Quantity,
		"positions", len(res.Positions.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	o.record(ctx, journal.FromResult(o.source, res))

	return res, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, recon.ErrEmptyTable):
		return "empty_table"
	case errors.Is(err, recon.ErrColumnIdentification):
		return "column_identification"
	case errors.Is(err, recon.ErrAggregation):
		return "aggregation"
	default:
		return "other"
	}
}
