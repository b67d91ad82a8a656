package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dailybread/internal/services"
	"dailybread/internal/speech"
	"dailybread/internal/storage"
	"dailybread/internal/subtitles"
	"dailybread/internal/timing"
)

// narrate synthesizes one translation, builds its subtitles, uploads both and
// records the URLs. A missing credential or voice pool is a skip.
func (r *dayRun) narrate(ctx context.Context, code string) (err error) {
	ctx, span := r.tracer.Start(ctx, "narrate", trace.WithAttributes(attribute.String("dailybread.code", code)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "narration failed")
		}
		span.End()
	}()

	translations, err := r.deps.Repo.ListTranslations(ctx, r.rec.ID)
	if err != nil {
		return fmt.Errorf("list translations: %w", err)
	}
	text := ""
	for _, tr := range translations {
		if strings.EqualFold(tr.Code, code) {
			text = tr.NarrationText()
			break
		}
	}
	if text == "" {
		return nil
	}

	voice, skip, err := r.voices.Resolve(ctx, r.languageFor(code), r.date, code)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", StepNarrate, "resolve voice", err)
	}
	if skip != "" {
		r.progress(ctx, StepNarrate, code, fmt.Sprintf("skipping %s narration: %s", code, skip))
		return nil
	}

	result, words, err := r.synthesize(ctx, voice, text)
	if err != nil {
		return err
	}
	doc := subtitles.BuildDocument(words, r.subtitleOpts)
	if issues := subtitles.Validate(doc); len(issues) > 0 {
		return services.Wrap(services.ErrValidation, "pipeline", StepNarrate, "invalid subtitles: "+strings.Join(issues, "; "), nil)
	}

	audioURL, err := r.upload(ctx, result.Audio, storage.Key(string(r.mode)+"-narration", r.date, code, audioExtension(result.ContentType)), audioContentType(result.ContentType))
	if err != nil {
		return err
	}
	subtitleURL, err := r.upload(ctx, []byte(doc), storage.Key(string(r.mode)+"-subtitles", r.date, code, "srt"), storage.ContentTypeSRT)
	if err != nil {
		return err
	}
	if _, err := r.deps.Repo.SetTranslationMedia(ctx, r.rec.ID, code, audioURL, subtitleURL); err != nil {
		return fmt.Errorf("store %s media: %w", code, err)
	}
	r.progress(ctx, StepNarrate, code, fmt.Sprintf("narrated %s with %s (%s, %d words)",
		code, voice.Synthesizer.Name(), humanize.Bytes(uint64(len(result.Audio))), len(words)))
	return nil
}

// meditationAudio narrates the meditation script in the record language.
// No subtitles are produced for it.
func (r *dayRun) meditationAudio(ctx context.Context) (err error) {
	ctx, span := r.tracer.Start(ctx, "meditation_audio")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "meditation audio failed")
		}
		span.End()
	}()

	lang := r.rec.Language
	voice, skip, err := r.voices.Resolve(ctx, lang, r.date, lang)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", StepMeditationAudio, "resolve voice", err)
	}
	if skip != "" {
		r.progress(ctx, StepMeditationAudio, "", "skipping meditation audio: "+skip)
		return nil
	}

	result, _, err := r.synthesize(ctx, voice, r.rec.MeditationScript)
	if err != nil {
		return err
	}
	url, err := r.upload(ctx, result.Audio, storage.Key(string(r.mode)+"-meditation", r.date, voice.Language, audioExtension(result.ContentType)), audioContentType(result.ContentType))
	if err != nil {
		return err
	}
	if _, err := r.deps.Repo.SetMeditationAudio(ctx, r.rec.ID, url); err != nil {
		return fmt.Errorf("store meditation audio: %w", err)
	}
	r.progress(ctx, StepMeditationAudio, "", "meditation audio uploaded ("+humanize.Bytes(uint64(len(result.Audio)))+")")
	return nil
}

// synthesize calls the voice's adapter through the speech gate and
// normalizes its timing output.
func (r *dayRun) synthesize(ctx context.Context, voice Voice, text string) (speech.Result, []timing.WordTiming, error) {
	var result speech.Result
	err := r.deps.SpeechGate.After(ctx, func() error {
		var err error
		result, err = voice.Synthesizer.Synthesize(ctx, text, voice.VoiceID, voice.Credential)
		return err
	})
	if err != nil {
		return speech.Result{}, nil, services.Wrap(services.ErrExternal, "pipeline", "synthesize", voice.Synthesizer.Name(), err)
	}
	if len(result.Audio) == 0 {
		return speech.Result{}, nil, services.Wrap(services.ErrExternal, "pipeline", "synthesize", voice.Synthesizer.Name()+" returned no audio", nil)
	}
	words, err := timing.Normalize(result.Timing)
	if err != nil {
		return speech.Result{}, nil, services.Wrap(services.ErrValidation, "pipeline", "synthesize", "normalize timing", err)
	}
	return result, words, nil
}

func (r *dayRun) upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	url, err := r.deps.Uploader.Upload(ctx, data, key, contentType)
	if err != nil {
		return "", services.Wrap(services.ErrExternal, "pipeline", "upload", key, err)
	}
	return url, nil
}

func audioContentType(contentType string) string {
	if ct := strings.TrimSpace(contentType); ct != "" {
		return ct
	}
	return storage.ContentTypeMP3
}

func audioExtension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	case "audio/ogg", "audio/opus":
		return "ogg"
	case "audio/pcm", "audio/l16":
		return "pcm"
	case "audio/basic":
		return "ulaw"
	default:
		return "mp3"
	}
}
