package generators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dailybread/internal/llm"
	"dailybread/internal/logging"
	"dailybread/internal/textutil"
)

// DefaultSimilarityThreshold rejects quotes closer than this to a recent one.
const DefaultSimilarityThreshold = 0.85

// QuoteWriter generates affirmation quotes.
type QuoteWriter struct {
	llm       Completer
	threshold float64
	logger    *slog.Logger
}

// NewQuoteWriter returns a writer backed by completer.
func NewQuoteWriter(completer Completer, logger *slog.Logger) *QuoteWriter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &QuoteWriter{
		llm:       completer,
		threshold: DefaultSimilarityThreshold,
		logger:    logging.NewComponentLogger(logger, "generators"),
	}
}

// Generate asks for a new quote seeded with recent quotes. A near-duplicate
// of a recent quote triggers one retry naming the rejected candidate; a
// second near-duplicate is accepted.
func (w *QuoteWriter) Generate(ctx context.Context, recent []string) (string, error) {
	if w == nil || w.llm == nil {
		return "", errors.New("generators: quote writer not configured")
	}
	var rejected string
	for attempt := 1; attempt <= 2; attempt++ {
		raw, err := w.llm.Complete(ctx, quoteSystemPrompt, quotePrompt(recent, rejected))
		if err != nil {
			return "", fmt.Errorf("generate quote: %w", err)
		}
		quote := llm.CleanProse(raw)
		if quote == "" {
			return "", errors.New("generate quote: empty response")
		}
		match := textutil.MostSimilar(quote, recent)
		if match.Score <= w.threshold {
			return quote, nil
		}
		if attempt == 2 {
			w.logger.Warn("accepting near-duplicate quote after retry",
				logging.String(logging.FieldEventType, "quote_near_duplicate"),
				logging.String(logging.FieldErrorHint, "widen the recent_quotes window or vary the prompt"),
				logging.String(logging.FieldImpact, "affirmation may resemble a recent day"),
				logging.Any("similarity", match.Score),
			)
			return quote, nil
		}
		w.logger.Info("quote too similar to a recent quote, retrying",
			logging.Any("similarity", match.Score),
			logging.String("matched", match.Text),
		)
		rejected = quote
	}
	return "", errors.New("generate quote: no candidate")
}
