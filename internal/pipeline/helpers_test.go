package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"dailybread/internal/config"
	"dailybread/internal/content"
	"dailybread/internal/credentials"
	"dailybread/internal/generators"
	"dailybread/internal/pipeline"
	"dailybread/internal/progress"
	"dailybread/internal/ratelimit"
	"dailybread/internal/speech"
	"dailybread/internal/testsupport"
	"dailybread/internal/textsource"
	"dailybread/internal/timing"
	"dailybread/internal/verses"
)

type fakeSelector struct {
	refs  []verses.Reference
	calls int
	err   error
}

func (f *fakeSelector) SelectUnused(context.Context) (verses.Reference, error) {
	f.calls++
	if f.err != nil {
		return verses.Reference{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.refs) {
		idx = len(f.refs) - 1
	}
	return f.refs[idx], nil
}

type textCall struct {
	key         string
	code        string
	granularity textsource.Granularity
}

// fakeText fails per code: fail applies to every granularity, failLong only
// to long text.
type fakeText struct {
	calls    []textCall
	missing  map[string]bool
	fail     map[string]error
	failLong map[string]error
}

func (f *fakeText) FetchText(_ context.Context, key, code string, granularity textsource.Granularity) (string, error) {
	f.calls = append(f.calls, textCall{key: key, code: code, granularity: granularity})
	if err := f.fail[code]; err != nil {
		return "", err
	}
	if err := f.failLong[code]; err != nil && granularity == textsource.Long {
		return "", err
	}
	if f.missing[code] {
		return "", nil
	}
	return fmt.Sprintf("%s %s text of %s.", code, granularity, key), nil
}

func (f *fakeText) callsFor(code string) int {
	n := 0
	for _, call := range f.calls {
		if call.code == code {
			n++
		}
	}
	return n
}

func (f *fakeText) count(granularity textsource.Granularity) int {
	n := 0
	for _, call := range f.calls {
		if call.granularity == granularity {
			n++
		}
	}
	return n
}

type fakeNarratives struct {
	calls  int
	failOn content.Field
	err    error
}

func (f *fakeNarratives) Generate(_ context.Context, field content.Field, req generators.Request) (string, error) {
	f.calls++
	if field == f.failOn && f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("%s about %s, call %d.", field, strings.TrimSpace(req.Reference+" "+req.PrimaryText), f.calls), nil
}

type fakeQuotes struct {
	calls  int
	recent [][]string
}

func (f *fakeQuotes) Generate(_ context.Context, recent []string) (string, error) {
	f.calls++
	f.recent = append(f.recent, recent)
	return fmt.Sprintf("You are held today, quote %d.", f.calls), nil
}

type synthCall struct {
	text       string
	voiceID    string
	credential string
}

// fakeSynth returns either character alignment or word durations for the
// submitted text, matching the adapter it stands in for.
type fakeSynth struct {
	name      string
	alignment bool
	failWhen  string
	calls     []synthCall
}

func (f *fakeSynth) Name() string { return f.name }

func (f *fakeSynth) Synthesize(_ context.Context, text, voiceID, credential string) (speech.Result, error) {
	f.calls = append(f.calls, synthCall{text: text, voiceID: voiceID, credential: credential})
	if f.failWhen != "" && strings.Contains(text, f.failWhen) {
		return speech.Result{}, errors.New("provider returned 503")
	}
	result := speech.Result{Audio: []byte("audio:" + text), ContentType: "audio/mpeg"}
	if f.alignment {
		var chars []string
		var starts, durations []int
		for i, r := range []rune(text) {
			chars = append(chars, string(r))
			starts = append(starts, i*40)
			durations = append(durations, 40)
		}
		result.Timing = timing.CharacterAlignment{Characters: chars, StartMs: starts, DurationMs: durations}
		return result, nil
	}
	words := strings.Fields(text)
	durations := make([]int, len(words))
	for i := range durations {
		durations[i] = 300
	}
	result.Timing = timing.WordDurations{Words: words, DurationsMs: durations}
	return result, nil
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryUploader) Upload(_ context.Context, data []byte, key, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	m.types[key] = contentType
	return "https://media.test/" + key, nil
}

func (m *memoryUploader) withPrefix(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}

type harness struct {
	cfg         *config.Config
	store       *content.Store
	selector    *fakeSelector
	text        *fakeText
	narratives  *fakeNarratives
	quotes      *fakeQuotes
	alignment   *fakeSynth
	duration    *fakeSynth
	uploader    *memoryUploader
	recorder    *progress.Recorder
	textSleeps  []time.Duration
	speechPause []time.Duration
	day         *pipeline.Day
}

func fullCredentials() []testsupport.ConfigOption {
	return []testsupport.ConfigOption{
		testsupport.WithCredential("alignment_api_key", "align-secret"),
		testsupport.WithCredential("duration_api_key", "duration-secret"),
		testsupport.WithCredential("voice_pool_en", "voice-en-a,voice-en-b"),
		testsupport.WithCredential("voice_pool_es", "voice-es-a"),
	}
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	base := []testsupport.ConfigOption{testsupport.WithTranslations(
		config.Translation{Code: "KJV", Language: "en"},
		config.Translation{Code: "WEB", Language: "en"},
		config.Translation{Code: "RVR1960", Language: "es", Throttled: true},
	)}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)
	cfg.Speech.DurationLanguages = []string{"es"}

	h := &harness{
		cfg:   cfg,
		store: testsupport.MustOpenStore(t, cfg),
		selector: &fakeSelector{refs: []verses.Reference{
			{Book: "JHN", BookName: "John", Chapter: 3, Verse: 16},
			{Book: "PSA", BookName: "Psalms", Chapter: 23, Verse: 1},
		}},
		text:       &fakeText{missing: map[string]bool{}, fail: map[string]error{}, failLong: map[string]error{}},
		narratives: &fakeNarratives{},
		quotes:     &fakeQuotes{},
		alignment:  &fakeSynth{name: "alignment", alignment: true},
		duration:   &fakeSynth{name: "duration"},
		uploader:   newMemoryUploader(),
		recorder:   &progress.Recorder{},
	}
	h.day = h.build(t)
	return h
}

func (h *harness) build(t *testing.T) *pipeline.Day {
	t.Helper()
	textGate := ratelimit.NewGate("text", 200*time.Millisecond, ratelimit.WithSleeper(func(_ context.Context, d time.Duration) error {
		h.textSleeps = append(h.textSleeps, d)
		return nil
	}))
	speechGate := ratelimit.NewGate("speech", 500*time.Millisecond, ratelimit.WithSleeper(func(_ context.Context, d time.Duration) error {
		h.speechPause = append(h.speechPause, d)
		return nil
	}))
	day, err := pipeline.NewDay(h.cfg, pipeline.Dependencies{
		Repo:        h.store,
		Selector:    h.selector,
		Text:        h.text,
		Narratives:  h.narratives,
		Quotes:      h.quotes,
		Credentials: credentials.Static(h.cfg.Credentials.Values),
		Alignment:   h.alignment,
		Duration:    h.duration,
		Uploader:    h.uploader,
		TextGate:    textGate,
		SpeechGate:  speechGate,
		Observers:   []progress.Sink{h.recorder},
	}, nil)
	if err != nil {
		t.Fatalf("NewDay: %v", err)
	}
	return day
}

func (h *harness) synthCalls() int {
	return len(h.alignment.calls) + len(h.duration.calls)
}

func (h *harness) record(t *testing.T, date string, mode content.Mode) *content.Record {
	t.Helper()
	rec, err := h.store.GetRecord(context.Background(), date, mode, "en")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	return rec
}

func (h *harness) translations(t *testing.T, rec *content.Record) map[string]content.Translation {
	t.Helper()
	list, err := h.store.ListTranslations(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("ListTranslations: %v", err)
	}
	out := make(map[string]content.Translation, len(list))
	for _, tr := range list {
		out[tr.Code] = tr
	}
	return out
}

// seedComplete fills primary content, every narrative field, the
// meditation audio and the ledger entry so only translation work remains.
func (h *harness) seedComplete(t *testing.T, date string) *content.Record {
	t.Helper()
	ctx := context.Background()
	rec := testsupport.NewRecord(t, h.store, date, content.ModeDevotional)
	if _, err := h.store.SetPrimary(ctx, rec.ID, content.PrimaryUpdate{
		Reference: "John 3:16", ReferenceKey: "JHN.3.16", Book: "JHN", Chapter: 3, Verse: 16,
		Text: "For God so loved the world.",
	}); err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}
	values := map[content.Field]string{}
	for _, field := range content.NarrativeFields() {
		values[field] = "seeded " + string(field)
	}
	if _, err := h.store.UpdateNarrative(ctx, rec.ID, values); err != nil {
		t.Fatalf("UpdateNarrative: %v", err)
	}
	if _, err := h.store.SetMeditationAudio(ctx, rec.ID, "https://media.test/seeded.mp3"); err != nil {
		t.Fatalf("SetMeditationAudio: %v", err)
	}
	if _, err := h.store.RecordReference(ctx, content.UsedReference{
		ReferenceKey: "JHN.3.16", Reference: "John 3:16", Book: "JHN", Chapter: 3, Verse: 16, Date: date, ContentID: rec.ID,
	}); err != nil {
		t.Fatalf("RecordReference: %v", err)
	}
	return rec
}

func (h *harness) seedTranslations(t *testing.T, rec *content.Record, codes ...string) {
	t.Helper()
	for _, code := range codes {
		if _, err := h.store.UpsertTranslationText(context.Background(), rec.ID, code, code+" verse text.", code+" long passage text.", content.SourceAPI); err != nil {
			t.Fatalf("UpsertTranslationText: %v", err)
		}
	}
}

func messages(rec *progress.Recorder) []string {
	out := make([]string, 0, len(rec.Events))
	for _, event := range rec.Events {
		out = append(out, event.Message)
	}
	return out
}

func containsMessage(rec *progress.Recorder, fragment string) bool {
	for _, message := range messages(rec) {
		if strings.Contains(message, fragment) {
			return true
		}
	}
	return false
}

func versesRef(verse int) verses.Reference {
	return verses.Reference{Book: "PSA", BookName: "Psalms", Chapter: 119, Verse: verse}
}
