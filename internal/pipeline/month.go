package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dailybread/internal/content"
	"dailybread/internal/logging"
	"dailybread/internal/progress"
	"dailybread/internal/services"
	"dailybread/internal/telemetry"
)

// ErrInvalidMonth is returned for month strings that are not YYYY-MM.
var ErrInvalidMonth = errors.New("invalid month")

const monthLayout = "2006-01"

// StepMonth names month-level progress events.
const StepMonth = "month"

// DayRunner runs one day. *Day satisfies it.
type DayRunner interface {
	Run(ctx context.Context, date string, mode content.Mode, sink progress.Sink) DayResult
}

// MonthResult summarizes a month run.
type MonthResult struct {
	Month       string
	Generated   int
	Failed      int
	Skipped     int
	FailedDates []string
	// Err is set when the month string is invalid or the run was cancelled.
	Err error
}

// Month is the month orchestrator.
type Month struct {
	days      DayRunner
	observers []progress.Sink
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewMonth returns a month orchestrator over days. Observers receive the
// month's own events; day events reach them through the day runner.
func NewMonth(days DayRunner, logger *slog.Logger, observers ...progress.Sink) *Month {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Month{
		days:      days,
		observers: observers,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		tracer:    telemetry.Tracer(),
		now:       time.Now,
	}
}

// MonthDates returns every YYYY-MM-DD date of month in ascending order.
func MonthDates(month string) ([]string, error) {
	start, err := time.Parse(monthLayout, strings.TrimSpace(month))
	if err != nil {
		return nil, fmt.Errorf("%w %q: want YYYY-MM", ErrInvalidMonth, month)
	}
	days := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	dates := make([]string, 0, days)
	for day := 1; day <= days; day++ {
		dates = append(dates, time.Date(start.Year(), start.Month(), day, 0, 0, 0, 0, time.UTC).Format(dateLayout))
	}
	return dates, nil
}

// Run calls the day runner once per date of month. A failed day is counted
// and recorded; the loop continues. An invalid month fails immediately with
// no day attempted.
func (m *Month) Run(ctx context.Context, month string, mode content.Mode, sink progress.Sink) MonthResult {
	if ctx == nil {
		ctx = context.Background()
	}
	month = strings.TrimSpace(month)
	result := MonthResult{Month: month}
	out := m.fanout(sink)

	if _, ok := services.RunIDFromContext(ctx); !ok {
		ctx = services.WithRunID(ctx, uuid.NewString())
	}
	ctx = services.WithMode(ctx, string(mode))
	logger := logging.WithContext(ctx, m.logger)

	dates, err := MonthDates(month)
	if err != nil {
		result.Failed = 1
		result.FailedDates = []string{month}
		result.Err = err
		m.emit(ctx, out, progress.Event{Kind: progress.KindError, Step: StepMonth, Mode: string(mode),
			Message: "invalid month " + month, Error: err.Error(), Err: err})
		logging.WarnWithContext(logger, "month rejected", "month_invalid",
			logging.String("month", month),
			logging.String(logging.FieldErrorHint, "use YYYY-MM with a month between 01 and 12"),
			logging.Error(err),
		)
		return result
	}

	ctx, span := m.tracer.Start(ctx, "month", trace.WithAttributes(
		attribute.String("dailybread.month", month),
		attribute.String("dailybread.mode", string(mode)),
	))
	defer span.End()

	logger.Info("month generation started",
		logging.String(logging.FieldEventType, "month_start"),
		logging.String("month", month),
		logging.Int("days", len(dates)),
	)

	total := len(dates)
	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}
		dayCtx := progress.ContextWithDay(ctx, i+1, total)
		day := m.days.Run(dayCtx, date, mode, progress.WithDay(sink, i+1, total))
		switch {
		case !day.Success:
			result.Failed++
			result.FailedDates = append(result.FailedDates, date)
		case day.Skipped:
			result.Skipped++
		default:
			result.Generated++
		}
	}

	span.SetAttributes(
		attribute.Int("dailybread.generated", result.Generated),
		attribute.Int("dailybread.failed", result.Failed),
		attribute.Int("dailybread.skipped", result.Skipped),
	)
	summary := fmt.Sprintf("month %s: %d generated, %d failed, %d skipped", month, result.Generated, result.Failed, result.Skipped)
	m.emit(ctx, out, progress.Event{Kind: progress.KindComplete, Step: StepMonth, Mode: string(mode), Total: total, Message: summary})
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "month_complete"),
		logging.String("month", month),
		logging.Int("generated", result.Generated),
		logging.Int("failed", result.Failed),
		logging.Int("skipped", result.Skipped),
	}
	if len(result.FailedDates) > 0 {
		attrs = append(attrs, logging.String("failed_dates", strings.Join(result.FailedDates, ",")))
	}
	logger.Info("month generation completed", logging.Args(attrs...)...)
	return result
}

func (m *Month) fanout(sink progress.Sink) progress.Sink {
	sinks := make(progress.Multi, 0, len(m.observers)+1)
	if sink != nil {
		sinks = append(sinks, sink)
	}
	return append(sinks, m.observers...)
}

func (m *Month) emit(ctx context.Context, sink progress.Sink, event progress.Event) {
	event.Time = m.now()
	sink.Emit(ctx, event)
}
