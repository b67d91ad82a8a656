// Package telemetry configures OpenTelemetry tracing for generation runs.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"dailybread/internal/config"
	"dailybread/internal/logging"
)

// InstrumentationName is the tracer name used by the pipeline.
const InstrumentationName = "dailybread/pipeline"

// TracePattern matches the files written by the trace exporter, for retention cleanup.
const TracePattern = "traces-*.jsonl"

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Tracer returns the pipeline tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Setup installs a global tracer provider that writes spans as JSON lines into
// the log directory. When telemetry is disabled the global no-op provider is
// left in place.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Shutdown, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg == nil || !cfg.Telemetry.Enabled {
		return noopShutdown, nil
	}

	path := TracePath(cfg.Paths.LogDir, time.Now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	serviceName := strings.TrimSpace(cfg.Telemetry.ServiceName)
	if serviceName == "" {
		serviceName = "dailybread"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("dailybread.storage_backend", cfg.Storage.Backend),
		),
	)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		_ = file.Close()
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	logger.Info("telemetry initialized",
		logging.String("exporter", "file"),
		logging.String("path", path),
	)

	return func(ctx context.Context) error {
		var errs []error
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}, nil
}

// TracePath returns the trace file for the day containing now.
func TracePath(logDir string, now time.Time) string {
	return filepath.Join(logDir, "traces-"+now.Format("20060102")+".jsonl")
}
