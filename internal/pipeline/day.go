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
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dailybread/internal/config"
	"dailybread/internal/content"
	"dailybread/internal/gaps"
	"dailybread/internal/generators"
	"dailybread/internal/language"
	"dailybread/internal/logging"
	"dailybread/internal/progress"
	"dailybread/internal/services"
	"dailybread/internal/subtitles"
	"dailybread/internal/telemetry"
	"dailybread/internal/textsource"
)

// ErrInvalidDate is returned for day strings that are not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

const dateLayout = "2006-01-02"

// Step names used in progress events and log context.
const (
	StepFindOrCreate     = "find_or_create"
	StepSelectPrimary    = "select_primary"
	StepFetchTranslation = "fetch_translation"
	StepGenerateQuote    = "generate_quote"
	StepStoreQuote       = "store_quote"
	StepNarrative        = "generate_narrative"
	StepNarrate          = "narrate"
	StepMeditationAudio  = "meditation_audio"
	StepRecordReference  = "record_reference"
	StepAdvanceStatus    = "advance_status"
	StepDay              = "day"
)

// DayResult summarizes one day run.
type DayResult struct {
	Date    string
	Mode    content.Mode
	Success bool
	Err     error
	// Created is set when the record did not exist before this run.
	Created bool
	// Skipped is set when the record needed no work at the start of the run.
	Skipped bool
}

// Day is the day orchestrator.
type Day struct {
	cfg          *config.Config
	deps         Dependencies
	voices       voicePolicy
	logger       *slog.Logger
	tracer       trace.Tracer
	now          func() time.Time
	languages    map[string]string
	throttled    map[string]struct{}
	subtitleOpts subtitles.Options
}

// NewDay validates the collaborators and returns a day orchestrator.
func NewDay(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Day, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config is required", nil)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Day{
		cfg:       cfg,
		deps:      deps,
		voices:    newVoicePolicy(cfg, deps.Alignment, deps.Duration, deps.Credentials),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		tracer:    deps.Tracer,
		now:       deps.Now,
		languages: make(map[string]string),
		throttled: make(map[string]struct{}),
		subtitleOpts: subtitles.Options{
			MaxCueMS:    cfg.Subtitles.MaxCueMS,
			MaxCueChars: cfg.Subtitles.MaxCueChars,
		},
	}
	if d.tracer == nil {
		d.tracer = telemetry.Tracer()
	}
	if d.now == nil {
		d.now = time.Now
	}
	for _, tr := range cfg.Pipeline.Translations {
		code := strings.ToUpper(strings.TrimSpace(tr.Code))
		d.languages[code] = tr.Language
		if tr.Throttled {
			d.throttled[code] = struct{}{}
		}
	}
	return d, nil
}

// Run drives the (date, mode) record toward complete. Progress goes to sink
// and to every configured observer. The returned result is never partial:
// Success is false exactly when Err is set.
func (d *Day) Run(ctx context.Context, date string, mode content.Mode, sink progress.Sink) DayResult {
	if ctx == nil {
		ctx = context.Background()
	}
	date = strings.TrimSpace(date)
	result := DayResult{Date: date, Mode: mode}

	if _, ok := services.RunIDFromContext(ctx); !ok {
		ctx = services.WithRunID(ctx, uuid.NewString())
	}
	ctx = services.WithDate(ctx, date)
	ctx = services.WithMode(ctx, string(mode))
	ctx, span := d.tracer.Start(ctx, "day", trace.WithAttributes(
		attribute.String("dailybread.date", date),
		attribute.String("dailybread.mode", string(mode)),
	))
	defer span.End()

	run := &dayRun{Day: d, date: date, mode: mode, sink: d.fanout(sink)}
	logger := logging.WithContext(ctx, d.logger)
	logger.Info("day generation started", logging.String(logging.FieldEventType, "day_start"))

	err := run.validate()
	if err == nil {
		err = run.execute(ctx)
	}
	result.Created = run.created
	result.Skipped = run.skipped
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "day failed")
		run.fail(ctx, StepDay, "", "day generation failed", err)
		logging.ErrorWithContext(logger, "day generation failed", "day_failure",
			logging.String(logging.FieldErrorKind, services.Classify(err)),
			logging.String(logging.FieldErrorHint, "fix the cause and re-run the day; completed fields are kept"),
			logging.Error(err),
		)
		result.Err = err
		return result
	}

	result.Success = true
	logger.Info("day generation completed",
		logging.String(logging.FieldEventType, "day_complete"),
		logging.Bool("created", run.created),
		logging.Bool("skipped", run.skipped),
	)
	return result
}

func (d *Day) fanout(sink progress.Sink) progress.Sink {
	sinks := make(progress.Multi, 0, len(d.deps.Observers)+1)
	if sink != nil {
		sinks = append(sinks, sink)
	}
	sinks = append(sinks, d.deps.Observers...)
	return sinks
}

// dayRun carries the state of one Run call.
type dayRun struct {
	*Day
	date    string
	mode    content.Mode
	sink    progress.Sink
	rec     *content.Record
	created bool
	skipped bool
}

func (r *dayRun) validate() error {
	if _, err := time.Parse(dateLayout, r.date); err != nil {
		return fmt.Errorf("%w %q: want YYYY-MM-DD", ErrInvalidDate, r.date)
	}
	if _, err := content.ParseMode(string(r.mode)); err != nil {
		return services.Wrap(services.ErrValidation, "pipeline", "run", "", err)
	}
	return nil
}

func (r *dayRun) execute(ctx context.Context) error {
	stepCtx := services.WithStep(ctx, StepFindOrCreate)
	rec, created, err := r.deps.Repo.FindOrCreateRecord(stepCtx, r.date, r.mode, r.cfg.Pipeline.Language)
	if err != nil {
		return fmt.Errorf("find or create record: %w", err)
	}
	r.rec = rec
	r.created = created
	if created {
		r.progress(stepCtx, StepFindOrCreate, "", "created new record")
	} else {
		r.progress(stepCtx, StepFindOrCreate, "", fmt.Sprintf("reusing existing record (status %s)", rec.Status))
	}

	plan, err := r.analyze(ctx)
	if err != nil {
		return err
	}
	if plan.Empty() {
		r.skipped = true
		r.progress(ctx, StepDay, "", "nothing to generate")
		return nil
	}

	// Primary content.
	switch {
	case plan.Has(gaps.KindSelectPrimary):
		if err := r.selectPrimary(services.WithStep(ctx, StepSelectPrimary)); err != nil {
			return err
		}
	case plan.Has(gaps.KindGenerateQuote):
		if err := r.generateQuote(services.WithStep(ctx, StepGenerateQuote)); err != nil {
			return err
		}
	}

	// Translations.
	if plan, err = r.analyze(ctx); err != nil {
		return err
	}
	// A text-source failure for one code never aborts the day.
	for _, code := range plan.Codes(gaps.KindFetchTranslation) {
		codeCtx := services.WithCode(services.WithStep(ctx, StepFetchTranslation), code)
		if err := r.fetchTranslation(codeCtx, code); err != nil {
			if !errors.Is(err, services.ErrExternal) {
				return err
			}
			r.fail(codeCtx, StepFetchTranslation, code, "translation fetch failed for "+code, err)
		}
	}
	if plan.Has(gaps.KindStoreQuote) {
		if err := r.storeQuote(services.WithStep(ctx, StepStoreQuote)); err != nil {
			return err
		}
	}

	// Narrative fields.
	if plan, err = r.analyze(ctx); err != nil {
		return err
	}
	if fields := plan.Fields(); len(fields) > 0 {
		if err := r.generateNarratives(services.WithStep(ctx, StepNarrative), fields); err != nil {
			return err
		}
	}

	// Audio. Failures here never abort the day.
	if plan, err = r.analyze(ctx); err != nil {
		return err
	}
	for _, code := range plan.Codes(gaps.KindNarrate) {
		codeCtx := services.WithCode(services.WithStep(ctx, StepNarrate), code)
		if err := r.narrate(codeCtx, code); err != nil {
			r.fail(codeCtx, StepNarrate, code, "narration failed for "+code, err)
		}
	}
	if plan.Has(gaps.KindMeditationAudio) {
		stepCtx := services.WithStep(ctx, StepMeditationAudio)
		if err := r.meditationAudio(stepCtx); err != nil {
			r.fail(stepCtx, StepMeditationAudio, "", "meditation audio failed", err)
		}
	}

	// Ledger and status.
	if plan, err = r.analyze(ctx); err != nil {
		return err
	}
	if plan.Has(gaps.KindRecordReference) {
		if err := r.recordReference(services.WithStep(ctx, StepRecordReference)); err != nil {
			return err
		}
	}
	if plan.Has(gaps.KindAdvanceStatus) {
		stepCtx := services.WithStep(ctx, StepAdvanceStatus)
		changed, err := r.deps.Repo.AdvanceStatus(stepCtx, r.rec.ID, content.StatusEmpty, content.StatusGenerated)
		if err != nil {
			return fmt.Errorf("advance status: %w", err)
		}
		if changed {
			r.progress(stepCtx, StepAdvanceStatus, "", "status advanced to generated")
		}
	}
	return nil
}

// analyze reloads the record and its translations and recomputes the plan.
func (r *dayRun) analyze(ctx context.Context) (gaps.Plan, error) {
	rec, err := r.deps.Repo.GetRecordByID(ctx, r.rec.ID)
	if err != nil {
		return gaps.Plan{}, fmt.Errorf("reload record: %w", err)
	}
	r.rec = rec
	translations, err := r.deps.Repo.ListTranslations(ctx, rec.ID)
	if err != nil {
		return gaps.Plan{}, fmt.Errorf("list translations: %w", err)
	}
	recorded := false
	if key := strings.TrimSpace(rec.ReferenceKey); key != "" {
		if recorded, err = r.deps.Repo.HasReference(ctx, key); err != nil {
			return gaps.Plan{}, fmt.Errorf("check ledger: %w", err)
		}
	}
	return gaps.Analyze(gaps.Input{
		Mode:              r.mode,
		Record:            rec,
		Translations:      translations,
		ActiveCodes:       r.cfg.TranslationCodes(),
		ReferenceRecorded: recorded,
	}), nil
}

func (r *dayRun) selectPrimary(ctx context.Context) error {
	ref, err := r.deps.Selector.SelectUnused(ctx)
	if err != nil {
		return services.Wrap(services.ErrExternal, "pipeline", StepSelectPrimary, "select reference", err)
	}
	code := strings.ToUpper(strings.TrimSpace(r.cfg.Pipeline.PrimaryCode))
	text, err := r.fetchText(services.WithCode(ctx, code), ref.Key(), code, textsource.Short)
	if err != nil {
		return services.Wrap(services.ErrExternal, "pipeline", StepSelectPrimary, "fetch primary text for "+ref.String(), err)
	}
	if text == "" {
		return services.Wrap(services.ErrNotFound, "pipeline", StepSelectPrimary,
			fmt.Sprintf("no %s text for %s", code, ref.String()), nil)
	}
	if _, err := r.deps.Repo.SetPrimary(ctx, r.rec.ID, content.PrimaryUpdate{
		Reference:    ref.String(),
		ReferenceKey: ref.Key(),
		Book:         ref.Book,
		Chapter:      ref.Chapter,
		Verse:        ref.Verse,
		Text:         text,
	}); err != nil {
		return fmt.Errorf("store primary: %w", err)
	}
	r.progress(ctx, StepSelectPrimary, "", "selected "+ref.String())
	return nil
}

func (r *dayRun) generateQuote(ctx context.Context) error {
	recent, err := r.deps.Repo.RecentPrimaryTexts(ctx, r.mode, r.cfg.Pipeline.RecentQuotes)
	if err != nil {
		return fmt.Errorf("load recent quotes: %w", err)
	}
	quote, err := r.deps.Quotes.Generate(ctx, recent)
	if err != nil {
		return services.Wrap(services.ErrExternal, "pipeline", StepGenerateQuote, "generate quote", err)
	}
	quote = strings.TrimSpace(quote)
	if quote == "" {
		return services.Wrap(services.ErrValidation, "pipeline", StepGenerateQuote, "quote generator returned no text", nil)
	}
	if _, err := r.deps.Repo.SetPrimary(ctx, r.rec.ID, content.PrimaryUpdate{Text: quote}); err != nil {
		return fmt.Errorf("store quote: %w", err)
	}
	r.progress(ctx, StepGenerateQuote, "", "generated quote")
	return nil
}

func (r *dayRun) storeQuote(ctx context.Context) error {
	code := gaps.AffirmationCode()
	if _, err := r.deps.Repo.UpsertTranslationText(ctx, r.rec.ID, code, r.rec.PrimaryText, "", content.SourceStored); err != nil {
		return fmt.Errorf("store %s quote: %w", code, err)
	}
	r.progress(services.WithCode(ctx, code), StepStoreQuote, code, "stored quote as "+code)
	return nil
}

// fetchTranslation stores the short and long text for code. An empty short
// text is a skip. Text-source failures for either granularity store nothing,
// so the next run fetches the code again.
func (r *dayRun) fetchTranslation(ctx context.Context, code string) error {
	key := r.rec.ReferenceKey
	if strings.TrimSpace(key) == "" {
		return services.Wrap(services.ErrValidation, "pipeline", StepFetchTranslation, "record has no reference key", nil)
	}
	text, err := r.fetchText(ctx, key, code, textsource.Short)
	if err != nil {
		return services.Wrap(services.ErrExternal, "pipeline", StepFetchTranslation, "fetch "+code+" text", err)
	}
	if text == "" {
		r.progress(ctx, StepFetchTranslation, code, fmt.Sprintf("no %s text for %s; skipping", code, r.rec.Reference))
		return nil
	}
	long, err := r.fetchText(ctx, key, code, textsource.Long)
	if err != nil {
		return services.Wrap(services.ErrExternal, "pipeline", StepFetchTranslation, "fetch "+code+" long text", err)
	}
	if _, err := r.deps.Repo.UpsertTranslationText(ctx, r.rec.ID, code, text, long, content.SourceAPI); err != nil {
		return fmt.Errorf("store %s text: %w", code, err)
	}
	r.progress(ctx, StepFetchTranslation, code, "fetched "+code+" text")
	return nil
}

// fetchText calls the text source, pausing afterwards for throttled codes
// whether or not the call succeeded.
func (r *dayRun) fetchText(ctx context.Context, key, code string, granularity textsource.Granularity) (string, error) {
	var text string
	call := func() error {
		var err error
		text, err = r.deps.Text.FetchText(ctx, key, code, granularity)
		return err
	}
	var err error
	if _, ok := r.throttled[strings.ToUpper(code)]; ok {
		err = r.deps.TextGate.After(ctx, call)
	} else {
		err = call()
	}
	return strings.TrimSpace(text), err
}

// generateNarratives generates each field and writes all of them in one
// update. Fields generated before a failure are still written.
func (r *dayRun) generateNarratives(ctx context.Context, fields []content.Field) error {
	req := narrativeRequest(r.mode, r.rec)
	staged := make(map[content.Field]string, len(fields))
	var genErr error
	for _, field := range fields {
		text, err := r.deps.Narratives.Generate(ctx, field, req)
		if err != nil {
			genErr = services.Wrap(services.ErrExternal, "pipeline", StepNarrative, "generate "+string(field), err)
			break
		}
		if strings.TrimSpace(text) == "" {
			genErr = services.Wrap(services.ErrValidation, "pipeline", StepNarrative, string(field)+" generator returned no text", nil)
			break
		}
		staged[field] = text
		r.progress(ctx, StepNarrative, "", "generated "+string(field))
	}
	if len(staged) > 0 {
		if _, err := r.deps.Repo.UpdateNarrative(ctx, r.rec.ID, staged); err != nil {
			return errors.Join(genErr, fmt.Errorf("store narrative fields: %w", err))
		}
	}
	return genErr
}

func (r *dayRun) recordReference(ctx context.Context) error {
	rec := r.rec
	if _, err := r.deps.Repo.RecordReference(ctx, content.UsedReference{
		ReferenceKey: rec.ReferenceKey,
		Reference:    rec.Reference,
		Book:         rec.Book,
		Chapter:      rec.Chapter,
		Verse:        rec.Verse,
		Date:         r.date,
		ContentID:    rec.ID,
	}); err != nil {
		return fmt.Errorf("record reference: %w", err)
	}
	r.progress(ctx, StepRecordReference, "", "recorded "+rec.Reference+" as used")
	return nil
}

// languageFor returns the configured language of a translation code, falling
// back to the record's language.
func (r *dayRun) languageFor(code string) string {
	if lang := strings.TrimSpace(r.languages[strings.ToUpper(code)]); lang != "" {
		return lang
	}
	return r.rec.Language
}

func (r *dayRun) progress(ctx context.Context, step, code, message string) {
	r.emit(ctx, progress.Event{Kind: progress.KindProgress, Step: step, Code: code, Message: message})
}

func (r *dayRun) fail(ctx context.Context, step, code, message string, err error) {
	event := progress.Event{Kind: progress.KindError, Step: step, Code: code, Message: message, Err: err}
	if err != nil {
		event.Error = err.Error()
	}
	r.emit(ctx, event)
}

func (r *dayRun) emit(ctx context.Context, event progress.Event) {
	if day, total, ok := progress.DayFromContext(ctx); ok && event.Day == 0 {
		event.Day = day
		event.Total = total
	}
	event.Date = r.date
	event.Mode = string(r.mode)
	event.Time = r.now()
	r.sink.Emit(ctx, event)
}

func narrativeRequest(mode content.Mode, rec *content.Record) generators.Request {
	return generators.Request{
		Mode:         mode,
		Reference:    rec.Reference,
		PrimaryText:  rec.PrimaryText,
		LanguageName: language.DisplayName(rec.Language),
	}
}
