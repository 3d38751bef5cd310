// Package trace exports OpenTelemetry spans for the desk's commands.
package trace

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const namespace = "position-desk"

var (
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	output         io.Closer
	enabled        bool
)

// Settings configure the exporter for one command.
type Settings struct {
	// Component names the command (recon, dashboard, contracts, ...) and
	// becomes the service name under the position-desk namespace.
	Component string
	Output    io.Writer
	Pretty    bool
	// SampleRatio below 1 keeps that share of root traces; 0 or >= 1 keeps all.
	SampleRatio float64
}

// Init reads LOG_TRACING_ENABLED, LOG_TRACE_FILE and LOG_TRACE_SAMPLE.
// Tracing stays off unless enabled; spans go to stderr unless a file is named.
func Init(component string) error {
	if getEnv("LOG_TRACING_ENABLED", "false") != "true" {
		enabled = false
		return nil
	}

	s := Settings{Component: component, Output: os.Stderr, Pretty: true, SampleRatio: 1}
	if v := os.Getenv("LOG_TRACE_SAMPLE"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid LOG_TRACE_SAMPLE %q: %w", v, err)
		}
		s.SampleRatio = ratio
	}
	if path := os.Getenv("LOG_TRACE_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		s.Output, s.Pretty = f, false
		if err := Start(s); err != nil {
			f.Close()
			return err
		}
		output = f
		return nil
	}
	return Start(s)
}

// Start installs a tracer provider exporting to s.Output.
func Start(s Settings) error {
	if s.Output == nil {
		return fmt.Errorf("trace output is required")
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(s.Output)}
	if s.Pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return err
	}

	component := s.Component
	if component == "" {
		component = namespace
	}
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNamespace(namespace),
			semconv.ServiceName(component),
			attribute.String("desk.component", component),
		),
	)
	if err != nil {
		return err
	}

	sampler := sdktrace.AlwaysSample()
	if s.SampleRatio > 0 && s.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.SampleRatio))
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tracerProvider)
	tracer = otel.Tracer(namespace + "/" + component)
	enabled = true
	return nil
}

// Shutdown flushes pending spans, closes a trace file and disables tracing.
func Shutdown(ctx context.Context) error {
	var err error
	if tracerProvider != nil {
		err = tracerProvider.Shutdown(ctx)
	}
	if output != nil {
		if cerr := output.Close(); err == nil {
			err = cerr
		}
	}
	tracer, tracerProvider, output, enabled = nil, nil, nil, false
	return err
}

func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, opts...)
}

func Enabled() bool {
	return enabled
}

// GetTraceFields returns the ids of the span in ctx, for logs and the journal.
func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
