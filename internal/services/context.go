package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	dateKey  contextKey = "date"
	modeKey  contextKey = "mode"
	codeKey  contextKey = "code"
	stepKey  contextKey = "step"
)

// WithRunID annotates context with the generation run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return withString(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, runIDKey)
}

// WithDate annotates context with the content date (YYYY-MM-DD).
func WithDate(ctx context.Context, date string) context.Context {
	return withString(ctx, dateKey, date)
}

// DateFromContext returns the content date if present.
func DateFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, dateKey)
}

// WithMode annotates context with the content mode.
func WithMode(ctx context.Context, mode string) context.Context {
	return withString(ctx, modeKey, mode)
}

// ModeFromContext returns the content mode if present.
func ModeFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, modeKey)
}

// WithCode annotates context with the translation/voice code being processed.
func WithCode(ctx context.Context, code string) context.Context {
	return withString(ctx, codeKey, code)
}

// CodeFromContext returns the translation code if present.
func CodeFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, codeKey)
}

// WithStep annotates context with the pipeline step name.
func WithStep(ctx context.Context, step string) context.Context {
	return withString(ctx, stepKey, step)
}

// StepFromContext returns the step name if present.
func StepFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stepKey)
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
