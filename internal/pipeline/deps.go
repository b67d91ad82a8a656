package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"dailybread/internal/content"
	"dailybread/internal/credentials"
	"dailybread/internal/generators"
	"dailybread/internal/progress"
	"dailybread/internal/ratelimit"
	"dailybread/internal/services"
	"dailybread/internal/speech"
	"dailybread/internal/storage"
	"dailybread/internal/textsource"
	"dailybread/internal/verses"
)

// Repository is the persistence surface the orchestrator needs. *content.Store
// satisfies it.
type Repository interface {
	FindOrCreateRecord(ctx context.Context, date string, mode content.Mode, language string) (*content.Record, bool, error)
	GetRecordByID(ctx context.Context, id int64) (*content.Record, error)
	SetPrimary(ctx context.Context, id int64, update content.PrimaryUpdate) (bool, error)
	UpdateNarrative(ctx context.Context, id int64, values map[content.Field]string) (bool, error)
	AdvanceStatus(ctx context.Context, id int64, from, to content.Status) (bool, error)
	SetMeditationAudio(ctx context.Context, id int64, url string) (bool, error)
	RecentPrimaryTexts(ctx context.Context, mode content.Mode, limit int) ([]string, error)
	ListTranslations(ctx context.Context, contentID int64) ([]content.Translation, error)
	UpsertTranslationText(ctx context.Context, contentID int64, code, text, longText string, source content.Source) (bool, error)
	SetTranslationMedia(ctx context.Context, contentID int64, code, audioURL, subtitleURL string) (bool, error)
	HasReference(ctx context.Context, key string) (bool, error)
	RecordReference(ctx context.Context, ref content.UsedReference) (bool, error)
}

// ReferenceSelector returns a reference absent from the used-reference ledger.
type ReferenceSelector interface {
	SelectUnused(ctx context.Context) (verses.Reference, error)
}

// NarrativeGenerator produces one narrative field.
type NarrativeGenerator interface {
	Generate(ctx context.Context, field content.Field, req generators.Request) (string, error)
}

// QuoteGenerator produces a new affirmation quote distinct from recent ones.
type QuoteGenerator interface {
	Generate(ctx context.Context, recent []string) (string, error)
}

// Dependencies are the collaborators a Day drives. Gates, Observers, Tracer
// and Now are optional.
type Dependencies struct {
	Repo        Repository
	Selector    ReferenceSelector
	Text        textsource.Fetcher
	Narratives  NarrativeGenerator
	Quotes      QuoteGenerator
	Credentials credentials.Store
	Alignment   speech.Synthesizer
	Duration    speech.Synthesizer
	Uploader    storage.Uploader

	// TextGate pauses after every fetch for throttled translation codes.
	TextGate *ratelimit.Gate
	// SpeechGate pauses after every synthesis call.
	SpeechGate *ratelimit.Gate

	// Observers receive every event in addition to the caller's sink.
	Observers []progress.Sink
	Tracer    trace.Tracer
	Now       func() time.Time
}

func (d Dependencies) validate() error {
	missing := ""
	switch {
	case d.Repo == nil:
		missing = "repository"
	case d.Selector == nil:
		missing = "reference selector"
	case d.Text == nil:
		missing = "text source"
	case d.Narratives == nil:
		missing = "narrative generator"
	case d.Quotes == nil:
		missing = "quote generator"
	case d.Alignment == nil:
		missing = "alignment synthesizer"
	case d.Duration == nil:
		missing = "duration synthesizer"
	case d.Uploader == nil:
		missing = "uploader"
	}
	if missing != "" {
		return services.Wrap(services.ErrConfiguration, "pipeline", "init", missing+" is required", nil)
	}
	return nil
}
