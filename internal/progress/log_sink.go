package progress

import (
	"context"
	"log/slog"

	"dailybread/internal/logging"
	"dailybread/internal/services"
)

// LogSink writes events to a structured logger. Error events are logged at
// warn level with the error classification; completion at info.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink bound to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogSink{logger: logging.NewComponentLogger(logger, "progress")}
}

// Emit implements Sink.
func (s *LogSink) Emit(ctx context.Context, event Event) {
	logger := logging.WithContext(ctx, s.logger)
	attrs := []logging.Attr{logging.String(logging.FieldStep, event.Step)}
	if event.Date != "" {
		attrs = append(attrs, logging.String(logging.FieldDate, event.Date))
	}
	if event.Code != "" {
		attrs = append(attrs, logging.String(logging.FieldCode, event.Code))
	}
	if event.Total > 0 {
		attrs = append(attrs, logging.Int("day", event.Day), logging.Int("total", event.Total))
	}
	switch event.Kind {
	case KindError:
		attrs = append(attrs,
			logging.String(logging.FieldErrorKind, services.Classify(event.Err)),
			logging.String(logging.FieldErrorHint, "re-run the day once the cause is fixed; completed fields are kept"),
			logging.String(logging.FieldImpact, "this step made no progress on this run"),
		)
		if event.Err != nil {
			attrs = append(attrs, logging.Error(event.Err))
		} else if event.Error != "" {
			attrs = append(attrs, logging.String("error", event.Error))
		}
		logging.WarnWithContext(logger, event.Message, "generation_step_failed", attrs...)
	default:
		logger.Info(event.Message, logging.Args(attrs...)...)
	}
}
