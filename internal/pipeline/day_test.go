package pipeline_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"dailybread/internal/content"
	"dailybread/internal/gaps"
	"dailybread/internal/pipeline"
	"dailybread/internal/progress"
	"dailybread/internal/services"
	"dailybread/internal/subtitles"
	"dailybread/internal/testsupport"
	"dailybread/internal/textsource"
	"dailybread/internal/verses"
)

const testDate = "2026-02-01"

func TestDayFreshDevotionalCompletes(t *testing.T) {
	h := newHarness(t, fullCredentials()...)
	sink := &progress.Recorder{}

	result := h.day.Run(context.Background(), testDate, content.ModeDevotional, sink)
	if !result.Success || result.Err != nil {
		t.Fatalf("expected success, got %+v", result)
	}
	if !result.Created || result.Skipped {
		t.Fatalf("expected created and not skipped, got %+v", result)
	}

	rec := h.record(t, testDate, content.ModeDevotional)
	if rec.Status != content.StatusGenerated {
		t.Fatalf("expected status generated, got %q", rec.Status)
	}
	if rec.ReferenceKey != "JHN.3.16" || rec.Reference != "John 3:16" {
		t.Fatalf("unexpected reference %q / %q", rec.ReferenceKey, rec.Reference)
	}
	if rec.PrimaryText != "KJV short text of JHN.3.16." {
		t.Fatalf("unexpected primary text %q", rec.PrimaryText)
	}
	for _, field := range content.NarrativeFields() {
		if strings.TrimSpace(rec.Narrative(field)) == "" {
			t.Fatalf("expected %s to be generated", field)
		}
	}
	if rec.MeditationAudioURL != "https://media.test/devotional-meditation/2026-02-01/en.mp3" {
		t.Fatalf("unexpected meditation audio url %q", rec.MeditationAudioURL)
	}

	translations := h.translations(t, rec)
	for _, code := range []string{"KJV", "WEB", "RVR1960"} {
		tr, ok := translations[code]
		if !ok {
			t.Fatalf("missing translation %s", code)
		}
		if tr.AudioURL == "" || tr.SubtitleURL == "" {
			t.Fatalf("expected media for %s, got %+v", code, tr)
		}
		if tr.LongText == "" {
			t.Fatalf("expected long text for %s", code)
		}
	}
	if got := translations["KJV"].SubtitleURL; got != "https://media.test/devotional-subtitles/2026-02-01/kjv.srt" {
		t.Fatalf("unexpected subtitle url %q", got)
	}

	ledger, err := h.store.ListLedger(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListLedger: %v", err)
	}
	if len(ledger) != 1 || ledger[0].ReferenceKey != "JHN.3.16" || ledger[0].Date != testDate {
		t.Fatalf("unexpected ledger %+v", ledger)
	}

	// KJV and WEB plus the meditation go through alignment; Spanish uses durations.
	if len(h.alignment.calls) != 3 || len(h.duration.calls) != 1 {
		t.Fatalf("unexpected synthesis calls: alignment=%d duration=%d", len(h.alignment.calls), len(h.duration.calls))
	}
	if h.duration.calls[0].credential != "duration-secret" || h.duration.calls[0].voiceID != "voice-es-a" {
		t.Fatalf("unexpected duration call %+v", h.duration.calls[0])
	}
	if len(h.speechPause) != 4 {
		t.Fatalf("expected a speech pause per synthesis, got %d", len(h.speechPause))
	}
	// Only the throttled code pauses: one short and one long fetch.
	if len(h.textSleeps) != 2 {
		t.Fatalf("expected two text pauses, got %d", len(h.textSleeps))
	}

	for _, key := range h.uploader.withPrefix("devotional-subtitles/") {
		if issues := subtitles.Validate(string(h.uploader.objects[key])); len(issues) > 0 {
			t.Fatalf("subtitle %s invalid: %v", key, issues)
		}
		if h.uploader.types[key] != "application/x-subrip" {
			t.Fatalf("unexpected content type %q", h.uploader.types[key])
		}
	}
	if sink.Count(progress.KindError) != 0 {
		t.Fatalf("unexpected error events: %v", messages(sink))
	}
	if len(sink.Events) != len(h.recorder.Events) {
		t.Fatalf("observer and caller sinks diverged: %d vs %d", len(sink.Events), len(h.recorder.Events))
	}
	for _, event := range sink.Events {
		if event.Date != testDate || event.Mode != "devotional" {
			t.Fatalf("event missing date or mode: %+v", event)
		}
	}
}

func TestDayIsIdempotent(t *testing.T) {
	h := newHarness(t, fullCredentials()...)
	ctx := context.Background()

	first := h.day.Run(ctx, testDate, content.ModeDevotional, nil)
	if !first.Success {
		t.Fatalf("first run failed: %v", first.Err)
	}
	rec1 := h.record(t, testDate, content.ModeDevotional)
	tr1 := h.translations(t, rec1)
	textCalls, narrativeCalls, synthCalls := len(h.text.calls), h.narratives.calls, h.synthCalls()

	second := h.day.Run(ctx, testDate, content.ModeDevotional, nil)
	if !second.Success || !second.Skipped || second.Created {
		t.Fatalf("expected skipped second run, got %+v", second)
	}
	rec2 := h.record(t, testDate, content.ModeDevotional)
	tr2 := h.translations(t, rec2)

	rec1.UpdatedAt, rec2.UpdatedAt = rec1.UpdatedAt.UTC(), rec2.UpdatedAt.UTC()
	if !reflect.DeepEqual(rec1, rec2) {
		t.Fatalf("record changed on re-run:\n%+v\n%+v", rec1, rec2)
	}
	if !reflect.DeepEqual(tr1, tr2) {
		t.Fatalf("translations changed on re-run")
	}
	if len(h.text.calls) != textCalls || h.narratives.calls != narrativeCalls || h.synthCalls() != synthCalls {
		t.Fatalf("re-run repeated external calls")
	}
	if h.selector.calls != 1 {
		t.Fatalf("expected a single selection, got %d", h.selector.calls)
	}
	ledger, err := h.store.ListLedger(ctx, 0)
	if err != nil {
		t.Fatalf("ListLedger: %v", err)
	}
	if len(ledger) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(ledger))
	}
}

func TestDayFetchesEachMissingTranslationOnce(t *testing.T) {
	// No credentials: narration is skipped for every code.
	h := newHarness(t)
	rec := h.seedComplete(t, testDate)

	translations, err := h.store.ListTranslations(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("ListTranslations: %v", err)
	}
	plan := gaps.Analyze(gaps.Input{
		Mode:              content.ModeDevotional,
		Record:            rec,
		Translations:      translations,
		ActiveCodes:       h.cfg.TranslationCodes(),
		ReferenceRecorded: true,
	})
	if got := plan.Codes(gaps.KindFetchTranslation); len(got) != 3 || plan.Has(gaps.KindNarrate) {
		t.Fatalf("unexpected plan %v", plan.Steps)
	}

	result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil)
	if !result.Success {
		t.Fatalf("run failed: %v", result.Err)
	}
	if got := h.text.count(textsource.Short); got != 3 {
		t.Fatalf("expected 3 translation fetches, got %d", got)
	}
	if h.synthCalls() != 0 {
		t.Fatalf("expected no narration, got %d synthesis calls", h.synthCalls())
	}
	if h.selector.calls != 0 || h.narratives.calls != 0 {
		t.Fatalf("populated fields were regenerated")
	}
	if !containsMessage(h.recorder, "alignment_api_key not configured") {
		t.Fatalf("expected credential skip message, got %v", messages(h.recorder))
	}
	if h.recorder.Count(progress.KindError) != 0 {
		t.Fatalf("missing credentials must not be errors: %v", messages(h.recorder))
	}
}

func TestDayNarratesEveryCodeSkippingUnconfiguredLanguage(t *testing.T) {
	h := newHarness(t,
		testsupport.WithCredential("alignment_api_key", "align-secret"),
		testsupport.WithCredential("duration_api_key", "duration-secret"),
		testsupport.WithCredential("voice_pool_en", "voice-en-a,voice-en-b"),
	)
	rec := h.seedComplete(t, testDate)
	h.seedTranslations(t, rec, "KJV", "WEB", "RVR1960")

	result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil)
	if !result.Success {
		t.Fatalf("run failed: %v", result.Err)
	}
	if h.synthCalls() != 2 {
		t.Fatalf("expected 2 synthesis calls, got %d", h.synthCalls())
	}
	if got := len(h.uploader.withPrefix("devotional-subtitles/")); got != 2 {
		t.Fatalf("expected 2 subtitle uploads, got %d", got)
	}
	if len(h.text.calls) != 0 {
		t.Fatalf("translations with text were refetched")
	}
	translations := h.translations(t, rec)
	if translations["RVR1960"].AudioURL != "" {
		t.Fatalf("unconfigured language should stay without audio")
	}
	if !containsMessage(h.recorder, "voice_pool_es not configured") {
		t.Fatalf("expected voice pool skip, got %v", messages(h.recorder))
	}
	if h.alignment.calls[0].text != "KJV long passage text." {
		t.Fatalf("narration should use long text, got %q", h.alignment.calls[0].text)
	}
}

func TestDayNarrationFailureIsIsolated(t *testing.T) {
	h := newHarness(t, fullCredentials()...)
	h.alignment.failWhen = "KJV"
	rec := h.seedComplete(t, testDate)
	h.seedTranslations(t, rec, "KJV", "WEB", "RVR1960")

	result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil)
	if !result.Success {
		t.Fatalf("narration failure must not fail the day: %v", result.Err)
	}
	translations := h.translations(t, rec)
	if translations["KJV"].AudioURL != "" {
		t.Fatalf("failed code should have no audio")
	}
	if translations["WEB"].AudioURL == "" || translations["RVR1960"].AudioURL == "" {
		t.Fatalf("later codes should still be narrated")
	}
	if h.recorder.Count(progress.KindError) != 1 {
		t.Fatalf("expected one error event, got %v", messages(h.recorder))
	}
	var failed progress.Event
	for _, event := range h.recorder.Events {
		if event.Kind == progress.KindError {
			failed = event
		}
	}
	if failed.Code != "KJV" || failed.Step != pipeline.StepNarrate || !errors.Is(failed.Err, services.ErrExternal) {
		t.Fatalf("unexpected error event %+v", failed)
	}
	if got := h.record(t, testDate, content.ModeDevotional).Status; got != content.StatusGenerated {
		t.Fatalf("expected generated status, got %q", got)
	}

	// The failed code is retried on the next run.
	h.alignment.failWhen = ""
	if result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil); !result.Success {
		t.Fatalf("retry failed: %v", result.Err)
	}
	if h.translations(t, rec)["KJV"].AudioURL == "" {
		t.Fatalf("expected KJV narrated on retry")
	}
}

func TestDayMissingTranslationTextIsSkip(t *testing.T) {
	h := newHarness(t, fullCredentials()...)
	h.text.missing["RVR1960"] = true

	result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil)
	if !result.Success {
		t.Fatalf("run failed: %v", result.Err)
	}
	rec := h.record(t, testDate, content.ModeDevotional)
	if _, ok := h.translations(t, rec)["RVR1960"]; ok {
		t.Fatalf("no row should exist for a code without text")
	}
	if !containsMessage(h.recorder, "no RVR1960 text") {
		t.Fatalf("expected skip message, got %v", messages(h.recorder))
	}
	if len(h.textSleeps) != 1 {
		t.Fatalf("throttled code must pause even when empty, got %d pauses", len(h.textSleeps))
	}
}

func TestDayTranslationFetchFailureIsIsolated(t *testing.T) {
	h := newHarness(t, fullCredentials()...)
	rec := h.seedComplete(t, testDate)
	h.text.fail["WEB"] = errors.New("text source: http 503")
	h.text.fail["RVR1960"] = context.DeadlineExceeded

	result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil)
	if !result.Success {
		t.Fatalf("a failed translation must not fail the day: %v", result.Err)
	}
	translations := h.translations(t, rec)
	if len(translations) != 1 || translations["KJV"].AudioURL == "" {
		t.Fatalf("expected only KJV stored and narrated, got %#v", translations)
	}

	failedCodes := map[string]bool{}
	for _, event := range h.recorder.Events {
		if event.Kind != progress.KindError {
			continue
		}
		if event.Step != pipeline.StepFetchTranslation || !errors.Is(event.Err, services.ErrExternal) {
			t.Fatalf("unexpected error event %+v", event)
		}
		if failedCodes[event.Code] {
			t.Fatalf("duplicate error event for %s", event.Code)
		}
		failedCodes[event.Code] = true
	}
	if !reflect.DeepEqual(failedCodes, map[string]bool{"WEB": true, "RVR1960": true}) {
		t.Fatalf("expected one error per failing code, got %v", failedCodes)
	}
	if got := h.text.callsFor("RVR1960"); got != 1 {
		t.Fatalf("expected a single RVR1960 call, got %d", got)
	}
	if len(h.textSleeps) != 1 {
		t.Fatalf("throttled code must pause after a failed call, got %d pauses", len(h.textSleeps))
	}
	if got := h.record(t, testDate, content.ModeDevotional).Status; got != content.StatusGenerated {
		t.Fatalf("expected generated status, got %q", got)
	}

	// Failed codes are fetched on the next run; KJV is not fetched again.
	delete(h.text.fail, "WEB")
	delete(h.text.fail, "RVR1960")
	if result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil); !result.Success {
		t.Fatalf("retry failed: %v", result.Err)
	}
	translations = h.translations(t, rec)
	if translations["WEB"].AudioURL == "" || translations["RVR1960"].AudioURL == "" {
		t.Fatalf("expected retried codes stored and narrated, got %#v", translations)
	}
	if got := h.text.callsFor("KJV"); got != 2 {
		t.Fatalf("KJV refetched: %d calls", got)
	}
}

func TestDayLongTextFailureRefetchesCode(t *testing.T) {
	h := newHarness(t, fullCredentials()...)
	rec := h.seedComplete(t, testDate)
	h.text.failLong["WEB"] = errors.New("text source: http 502")

	result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil)
	if !result.Success {
		t.Fatalf("run failed: %v", result.Err)
	}
	if _, ok := h.translations(t, rec)["WEB"]; ok {
		t.Fatal("a code without its long text must not be stored")
	}
	if h.recorder.Count(progress.KindError) != 1 || !containsMessage(h.recorder, "translation fetch failed for WEB") {
		t.Fatalf("expected one WEB fetch error, got %v", messages(h.recorder))
	}

	delete(h.text.failLong, "WEB")
	if result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil); !result.Success {
		t.Fatalf("retry failed: %v", result.Err)
	}
	web := h.translations(t, rec)["WEB"]
	if web.LongText != "WEB long text of JHN.3.16." {
		t.Fatalf("expected long text on retry, got %q", web.LongText)
	}
	narrated := false
	for _, call := range h.alignment.calls {
		if call.text == web.LongText {
			narrated = true
		}
	}
	if !narrated {
		t.Fatal("WEB narration should use the long text")
	}
}

func TestDayNarrativeFailureAbortsAndResumes(t *testing.T) {
	h := newHarness(t, fullCredentials()...)
	h.narratives.failOn = content.FieldMeditationScript
	h.narratives.err = errors.New("model overloaded")

	result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil)
	if result.Success || result.Err == nil {
		t.Fatalf("expected failure, got %+v", result)
	}
	if !errors.Is(result.Err, services.ErrExternal) {
		t.Fatalf("expected external error marker, got %v", result.Err)
	}
	rec := h.record(t, testDate, content.ModeDevotional)
	if rec.CameraScript == "" || rec.Reflection == "" || rec.MeditationScript != "" {
		t.Fatalf("expected fields before the failure to be kept: %+v", rec)
	}
	if rec.Status != content.StatusEmpty {
		t.Fatalf("status must not advance on failure, got %q", rec.Status)
	}
	if h.synthCalls() != 0 {
		t.Fatalf("narration must not run after an abort")
	}
	ledger, _ := h.store.ListLedger(context.Background(), 0)
	if len(ledger) != 0 {
		t.Fatalf("ledger written before the day finished")
	}
	if h.recorder.Count(progress.KindError) != 1 {
		t.Fatalf("expected one day-level error event, got %v", messages(h.recorder))
	}

	camera := rec.CameraScript
	h.narratives.err = nil
	retry := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil)
	if !retry.Success || retry.Created {
		t.Fatalf("retry failed: %+v", retry)
	}
	rec = h.record(t, testDate, content.ModeDevotional)
	if rec.CameraScript != camera {
		t.Fatalf("populated field was overwritten: %q -> %q", camera, rec.CameraScript)
	}
	if rec.MeditationScript == "" || rec.Status != content.StatusGenerated {
		t.Fatalf("retry did not complete the record: %+v", rec)
	}
	if h.selector.calls != 1 {
		t.Fatalf("reference reselected on retry")
	}
	ledger, _ = h.store.ListLedger(context.Background(), 0)
	if len(ledger) != 1 || ledger[0].ReferenceKey != "JHN.3.16" {
		t.Fatalf("ledger not healed: %+v", ledger)
	}
}

func TestDayAffirmationStoresQuote(t *testing.T) {
	h := newHarness(t, fullCredentials()...)
	ctx := context.Background()
	earlier := testsupport.NewRecord(t, h.store, "2026-01-31", content.ModeAffirmation)
	if _, err := h.store.SetPrimary(ctx, earlier.ID, content.PrimaryUpdate{Text: "Yesterday's quote."}); err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}

	result := h.day.Run(ctx, testDate, content.ModeAffirmation, nil)
	if !result.Success {
		t.Fatalf("run failed: %v", result.Err)
	}
	if h.selector.calls != 0 || len(h.text.calls) != 0 {
		t.Fatalf("affirmation must not select references or fetch text")
	}
	if h.quotes.calls != 1 || len(h.quotes.recent[0]) != 1 || h.quotes.recent[0][0] != "Yesterday's quote." {
		t.Fatalf("quote generator not seeded with recent quotes: %+v", h.quotes.recent)
	}
	rec, err := h.store.GetRecord(ctx, testDate, content.ModeAffirmation, "en")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	translations := h.translations(t, rec)
	if len(translations) != 1 {
		t.Fatalf("expected only the EN row, got %d", len(translations))
	}
	en := translations["EN"]
	if en.Text != rec.PrimaryText || en.Source != content.SourceStored || en.AudioURL == "" {
		t.Fatalf("unexpected EN row %+v", en)
	}
	if ledger, _ := h.store.ListLedger(ctx, 0); len(ledger) != 0 {
		t.Fatalf("quotes are not ledgered")
	}
	if len(h.uploader.withPrefix("affirmation-narration/2026-02-01/en.mp3")) != 1 {
		t.Fatalf("expected affirmation narration upload")
	}
}

func TestDayLeavesReviewedStatus(t *testing.T) {
	h := newHarness(t)
	rec := h.seedComplete(t, testDate)
	ctx := context.Background()
	for _, step := range [][2]content.Status{
		{content.StatusEmpty, content.StatusGenerated},
		{content.StatusGenerated, content.StatusInReview},
	} {
		if _, err := h.store.AdvanceStatus(ctx, rec.ID, step[0], step[1]); err != nil {
			t.Fatalf("AdvanceStatus: %v", err)
		}
	}

	if result := h.day.Run(ctx, testDate, content.ModeDevotional, nil); !result.Success {
		t.Fatalf("run failed: %v", result.Err)
	}
	if got := h.record(t, testDate, content.ModeDevotional).Status; got != content.StatusInReview {
		t.Fatalf("status downgraded to %q", got)
	}
}

func TestDayRejectsInvalidDate(t *testing.T) {
	h := newHarness(t, fullCredentials()...)
	result := h.day.Run(context.Background(), "2026-02-30", content.ModeDevotional, nil)
	if result.Success || !errors.Is(result.Err, pipeline.ErrInvalidDate) {
		t.Fatalf("expected invalid date, got %+v", result)
	}
	if _, err := h.store.GetRecord(context.Background(), "2026-02-30", content.ModeDevotional, "en"); !errors.Is(err, content.ErrNotFound) {
		t.Fatalf("no record should be created, got %v", err)
	}
	if h.selector.calls != 0 {
		t.Fatalf("no step should run")
	}
}

func TestDaySelectionFailureAborts(t *testing.T) {
	h := newHarness(t, fullCredentials()...)
	h.selector.err = verses.ErrExhausted

	result := h.day.Run(context.Background(), testDate, content.ModeDevotional, nil)
	if result.Success || !errors.Is(result.Err, verses.ErrExhausted) {
		t.Fatalf("expected exhausted selector error, got %+v", result)
	}
	if len(h.text.calls) != 0 {
		t.Fatalf("no text should be fetched without a reference")
	}
	last := h.recorder.Events[len(h.recorder.Events)-1]
	if last.Kind != progress.KindError || last.Step != pipeline.StepDay {
		t.Fatalf("expected final day error event, got %+v", last)
	}
	if got := h.record(t, testDate, content.ModeDevotional).Status; got != content.StatusEmpty {
		t.Fatalf("status advanced on failure: %q", got)
	}
}

func TestNewDayRequiresCollaborators(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := pipeline.NewDay(cfg, pipeline.Dependencies{}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := pipeline.NewDay(nil, pipeline.Dependencies{}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for nil config, got %v", err)
	}
}
