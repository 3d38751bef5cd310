package sheetobs

import (
	"context"
	"io"
	"time"

	"position-desk/internal/interfaces"
	"position-desk/internal/logger"
	"position-desk/internal/metrics"
	"position-desk/internal/sheet"
	"position-desk/internal/trace"
	"position-desk/internal/types"
)

type observableLoader struct {
	loader interfaces.TableLoader
}

var _ interfaces.TableLoader = (*observableLoader)(nil)

func Wrap(loader interfaces.TableLoader) interfaces.TableLoader {
	return &observableLoader{loader: loader}
}

func (ol *observableLoader) Load(ctx context.Context, name string, r io.Reader) (types.PositionTable, error) {
	ctx, span := trace.StartSpan(ctx, "sheet.Load")
	defer span.End()

	format := sheet.Format(name)
	if format == "" {
		format = "unknown"
	}
	start := time.Now()

	table, err := ol.loader.Load(ctx, name, r)
	if err != nil {
		metrics.SheetLoads.WithLabelValues(format, "error").Inc()
		logger.ErrorWithErrSkip(ctx, 1, "Failed to load position file", err,
			"file", name,
			"format", format,
		)
		return table, err
	}

	metrics.SheetLoads.WithLabelValues(format, "ok").Inc()
	logger.InfoSkip(ctx, 1, "Loaded position file",
		"file", name,
		"format", format,
		"rows", len(table.Rows),
		"columns", len(table.Columns),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return table, nil
}
