package gaps

import (
	"fmt"
	"strings"

	"dailybread/internal/content"
)

// Kind identifies one pending step.
type Kind string

const (
	KindSelectPrimary     Kind = "select_primary"
	KindGenerateQuote     Kind = "generate_quote"
	KindFetchTranslation  Kind = "fetch_translation"
	KindStoreQuote        Kind = "store_quote"
	KindGenerateNarrative Kind = "generate_narrative"
	KindNarrate           Kind = "narrate"
	KindMeditationAudio   Kind = "meditation_audio"
	KindRecordReference   Kind = "record_reference"
	KindAdvanceStatus     Kind = "advance_status"
)

const affirmationPrimaryCode = "EN"

// Step is one unit of pending work. Code is set for translation and narration
// steps; Field is set for narrative steps.
type Step struct {
	Kind  Kind
	Code  string
	Field content.Field
}

func (s Step) String() string {
	switch {
	case s.Code != "":
		return fmt.Sprintf("%s:%s", s.Kind, s.Code)
	case s.Field != "":
		return fmt.Sprintf("%s:%s", s.Kind, s.Field)
	default:
		return string(s.Kind)
	}
}

// Input is the state Analyze inspects.
type Input struct {
	Mode         content.Mode
	Record       *content.Record
	Translations []content.Translation
	// ActiveCodes are the translation codes a devotional day must carry.
	ActiveCodes []string
	// ReferenceRecorded reports whether the record's reference key is
	// already in the used-reference ledger.
	ReferenceRecorded bool
}

// Plan is the ordered list of steps still required.
type Plan struct {
	Steps []Step
}

// Empty reports whether nothing remains to be done.
func (p Plan) Empty() bool {
	return len(p.Steps) == 0
}

// Has reports whether any step of kind is pending.
func (p Plan) Has(kind Kind) bool {
	for _, step := range p.Steps {
		if step.Kind == kind {
			return true
		}
	}
	return false
}

// Codes returns the codes of every pending step of kind, in plan order.
func (p Plan) Codes(kind Kind) []string {
	var codes []string
	for _, step := range p.Steps {
		if step.Kind == kind && step.Code != "" {
			codes = append(codes, step.Code)
		}
	}
	return codes
}

// Fields returns the narrative fields still to generate, in plan order.
func (p Plan) Fields() []content.Field {
	var fields []content.Field
	for _, step := range p.Steps {
		if step.Kind == KindGenerateNarrative {
			fields = append(fields, step.Field)
		}
	}
	return fields
}

// Kinds lists the distinct step kinds in plan order.
func (p Plan) Kinds() []Kind {
	seen := make(map[Kind]struct{}, len(p.Steps))
	var kinds []Kind
	for _, step := range p.Steps {
		if _, ok := seen[step.Kind]; ok {
			continue
		}
		seen[step.Kind] = struct{}{}
		kinds = append(kinds, step.Kind)
	}
	return kinds
}

// AffirmationCode is the single translation code carried by affirmation days.
func AffirmationCode() string {
	return affirmationPrimaryCode
}

// Analyze returns the steps still required for in.Record. A nil record is
// treated as freshly created with every field empty.
func Analyze(in Input) Plan {
	rec := in.Record
	if rec == nil {
		rec = &content.Record{Mode: in.Mode, Status: content.StatusEmpty}
	}
	mode := in.Mode
	if mode == "" {
		mode = rec.Mode
	}

	var steps []Step
	hasPrimary := rec.HasPrimary()
	texts := translationsByCode(in.Translations)

	if !hasPrimary {
		if mode == content.ModeAffirmation {
			steps = append(steps, Step{Kind: KindGenerateQuote})
		} else {
			steps = append(steps, Step{Kind: KindSelectPrimary})
		}
	} else {
		switch mode {
		case content.ModeAffirmation:
			if !texts[affirmationPrimaryCode].HasText() {
				steps = append(steps, Step{Kind: KindStoreQuote, Code: affirmationPrimaryCode})
			}
		default:
			for _, code := range normalizeCodes(in.ActiveCodes) {
				if !texts[code].HasText() {
					steps = append(steps, Step{Kind: KindFetchTranslation, Code: code})
				}
			}
		}
		for _, field := range content.NarrativeFields() {
			if strings.TrimSpace(rec.Narrative(field)) == "" {
				steps = append(steps, Step{Kind: KindGenerateNarrative, Field: field})
			}
		}
	}

	for _, tr := range in.Translations {
		if tr.NeedsNarration() {
			steps = append(steps, Step{Kind: KindNarrate, Code: strings.ToUpper(tr.Code)})
		}
	}

	if strings.TrimSpace(rec.MeditationScript) != "" && strings.TrimSpace(rec.MeditationAudioURL) == "" {
		steps = append(steps, Step{Kind: KindMeditationAudio})
	}

	if strings.TrimSpace(rec.ReferenceKey) != "" && !in.ReferenceRecorded {
		steps = append(steps, Step{Kind: KindRecordReference})
	}

	if rec.Status == content.StatusEmpty || rec.Status == "" {
		steps = append(steps, Step{Kind: KindAdvanceStatus})
	}
	return Plan{Steps: steps}
}

func translationsByCode(list []content.Translation) map[string]content.Translation {
	out := make(map[string]content.Translation, len(list))
	for _, tr := range list {
		out[strings.ToUpper(strings.TrimSpace(tr.Code))] = tr
	}
	return out
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
