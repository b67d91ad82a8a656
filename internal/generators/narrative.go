package generators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dailybread/internal/content"
	"dailybread/internal/llm"
	"dailybread/internal/logging"
)

// Completer is the LLM capability the writers depend on.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Request describes the primary content a narrative field is written for.
type Request struct {
	Mode         content.Mode
	Reference    string
	PrimaryText  string
	LanguageName string
}

// NarrativeWriter generates narrative fields.
type NarrativeWriter struct {
	llm    Completer
	logger *slog.Logger
}

// NewNarrativeWriter returns a writer backed by completer.
func NewNarrativeWriter(completer Completer, logger *slog.Logger) *NarrativeWriter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NarrativeWriter{llm: completer, logger: logging.NewComponentLogger(logger, "generators")}
}

// Generate writes one narrative field. It fails when the primary text is
// empty or the model returns nothing usable.
func (w *NarrativeWriter) Generate(ctx context.Context, field content.Field, req Request) (string, error) {
	if w == nil || w.llm == nil {
		return "", errors.New("generators: narrative writer not configured")
	}
	if strings.TrimSpace(req.PrimaryText) == "" {
		return "", fmt.Errorf("generators: %s requires primary text", field)
	}
	prompt, err := narrativePrompt(field, req)
	if err != nil {
		return "", err
	}
	raw, err := w.llm.Complete(ctx, narrativeSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", field, err)
	}
	text := llm.CleanProse(raw)
	if text == "" {
		return "", fmt.Errorf("generate %s: empty response", field)
	}
	w.logger.Debug("narrative generated",
		logging.String("field", string(field)),
		logging.Int("chars", len(text)),
	)
	return text, nil
}
