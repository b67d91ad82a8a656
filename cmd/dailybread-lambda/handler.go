package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"dailybread/internal/content"
	"dailybread/internal/logging"
	"dailybread/internal/pipeline"
	"dailybread/internal/progress"
)

type dayOutcome struct {
	Mode    string `json:"mode"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

type invocationResult struct {
	Date string       `json:"date"`
	Days []dayOutcome `json:"days"`
}

type handler struct {
	days   pipeline.DayRunner
	modes  []content.Mode
	offset int
	now    func() time.Time
	logger *slog.Logger
}

func newHandler(days pipeline.DayRunner, modes []string, offset int, logger *slog.Logger) (*handler, error) {
	if days == nil {
		return nil, errors.New("day runner is required")
	}
	if len(modes) == 0 {
		return nil, errors.New("at least one mode is required")
	}
	parsed := make([]content.Mode, 0, len(modes))
	for _, value := range modes {
		mode, err := content.ParseMode(value)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, mode)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &handler{
		days:   days,
		modes:  parsed,
		offset: offset,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "lambda"),
	}, nil
}

// Handle generates the target day for every configured mode. The invocation
// fails when any mode fails so the scheduler records the error.
func (h *handler) Handle(ctx context.Context, event events.CloudWatchEvent) (invocationResult, error) {
	date := targetDate(event.Time, h.now(), h.offset)
	h.logger.Info("scheduled generation",
		logging.String("date", date),
		logging.String("event_id", event.ID),
		logging.Int("modes", len(h.modes)),
	)

	result := invocationResult{Date: date}
	var errs []error
	for _, mode := range h.modes {
		day := h.days.Run(ctx, date, mode, progress.Discard)
		outcome := dayOutcome{Mode: string(mode), Success: day.Success, Skipped: day.Skipped}
		if day.Err != nil {
			outcome.Error = day.Err.Error()
			errs = append(errs, fmt.Errorf("%s %s: %w", date, mode, day.Err))
		}
		result.Days = append(result.Days, outcome)
	}
	return result, errors.Join(errs...)
}

// targetDate offsets the event time (or now when the event carries none) in UTC.
func targetDate(eventTime, now time.Time, offset int) string {
	base := eventTime
	if base.IsZero() {
		base = now
	}
	return base.UTC().AddDate(0, 0, offset).Format("2006-01-02")
}
