package pipeline

import (
	"context"
	"hash/fnv"
	"strings"

	"dailybread/internal/config"
	"dailybread/internal/credentials"
	"dailybread/internal/language"
	"dailybread/internal/speech"
)

const (
	alignmentCredentialKey = "alignment_api_key"
	durationCredentialKey  = "duration_api_key"
	voicePoolPrefix        = "voice_pool_"
)

// Voice is the resolved synthesis setup for one language.
type Voice struct {
	Language    string
	Synthesizer speech.Synthesizer
	VoiceID     string
	Credential  string
}

// voicePolicy maps a language to an adapter, credential and voice.
type voicePolicy struct {
	alignment         speech.Synthesizer
	duration          speech.Synthesizer
	durationLanguages map[string]struct{}
	store             credentials.Store
}

func newVoicePolicy(cfg *config.Config, alignment, duration speech.Synthesizer, store credentials.Store) voicePolicy {
	langs := make(map[string]struct{})
	if cfg != nil {
		for _, lang := range cfg.Speech.DurationLanguages {
			if iso := language.ToISO2(lang); iso != "" {
				langs[iso] = struct{}{}
			}
		}
	}
	return voicePolicy{alignment: alignment, duration: duration, durationLanguages: langs, store: store}
}

// credentialKey names the credential the adapter for lang needs.
func (p voicePolicy) credentialKey(lang string) string {
	if _, ok := p.durationLanguages[lang]; ok {
		return durationCredentialKey
	}
	return alignmentCredentialKey
}

// Resolve returns the voice for (lang, date, code). skip is non-empty when
// configuration is missing; err is set only when the credential store fails.
func (p voicePolicy) Resolve(ctx context.Context, lang, date, code string) (voice Voice, skip string, err error) {
	iso := language.ToISO2(lang)
	if iso == "" {
		return Voice{}, "no language mapped for " + code, nil
	}
	synth := p.alignment
	if _, ok := p.durationLanguages[iso]; ok {
		synth = p.duration
	}

	credKey := p.credentialKey(iso)
	credential, ok, err := credentials.Optional(ctx, p.store, credKey)
	if err != nil {
		return Voice{}, "", err
	}
	if !ok || strings.TrimSpace(credential) == "" {
		return Voice{}, credKey + " not configured", nil
	}

	poolKey := voicePoolPrefix + iso
	raw, ok, err := credentials.Optional(ctx, p.store, poolKey)
	if err != nil {
		return Voice{}, "", err
	}
	pool := credentials.List(raw)
	if !ok || len(pool) == 0 {
		return Voice{}, poolKey + " not configured", nil
	}

	return Voice{
		Language:    iso,
		Synthesizer: synth,
		VoiceID:     pickVoice(pool, date, code),
		Credential:  strings.TrimSpace(credential),
	}, "", nil
}

// pickVoice chooses deterministically so re-runs reuse the same voice.
func pickVoice(pool []string, date, code string) string {
	if len(pool) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(date + "|" + strings.ToUpper(code)))
	return pool[int(h.Sum32()%uint32(len(pool)))]
}
