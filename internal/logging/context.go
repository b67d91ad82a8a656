package logging

import (
	"context"
	"log/slog"

	"dailybread/internal/services"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 5)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if date, ok := services.DateFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDate, date))
	}
	if mode, ok := services.ModeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMode, mode))
	}
	if code, ok := services.CodeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCode, code))
	}
	if step, ok := services.StepFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStep, step))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
