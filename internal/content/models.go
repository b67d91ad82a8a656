package content

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects which kind of daily content a record holds.
type Mode string

const (
	ModeDevotional  Mode = "devotional"
	ModeAffirmation Mode = "affirmation"
)

// Modes lists every supported mode.
func Modes() []Mode {
	return []Mode{ModeDevotional, ModeAffirmation}
}

// ParseMode validates a mode string.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeDevotional:
		return ModeDevotional, nil
	case ModeAffirmation:
		return ModeAffirmation, nil
	default:
		return "", fmt.Errorf("unknown content mode %q (want devotional or affirmation)", value)
	}
}

// Status is the lifecycle state of a record. The pipeline only ever moves a
// record from empty to generated; later states belong to human review.
type Status string

const (
	StatusEmpty     Status = "empty"
	StatusGenerated Status = "generated"
	StatusAssigned  Status = "assigned"
	StatusInReview  Status = "in_review"
	StatusApproved  Status = "approved"
)

// Field names one narrative text column.
type Field string

const (
	FieldCameraScript     Field = "camera_script"
	FieldReflection       Field = "reflection"
	FieldMeditationScript Field = "meditation_script"
	FieldVisualPrompt     Field = "visual_prompt"
)

// NarrativeFields returns the narrative columns in generation order.
func NarrativeFields() []Field {
	return []Field{FieldCameraScript, FieldReflection, FieldMeditationScript, FieldVisualPrompt}
}

// Source records where translation text came from.
type Source string

const (
	SourceAPI    Source = "api"
	SourceStored Source = "stored"
)

// Record is one day's content for a mode and language.
type Record struct {
	ID                 int64
	Date               string
	Mode               Mode
	Language           string
	Reference          string
	ReferenceKey       string
	Book               string
	Chapter            int
	Verse              int
	PrimaryText        string
	CameraScript       string
	Reflection         string
	MeditationScript   string
	VisualPrompt       string
	MeditationAudioURL string
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasPrimary reports whether the primary reference or quote text is present.
func (r *Record) HasPrimary() bool {
	return r != nil && strings.TrimSpace(r.PrimaryText) != ""
}

// Narrative returns the value of one narrative field.
func (r *Record) Narrative(field Field) string {
	if r == nil {
		return ""
	}
	switch field {
	case FieldCameraScript:
		return r.CameraScript
	case FieldReflection:
		return r.Reflection
	case FieldMeditationScript:
		return r.MeditationScript
	case FieldVisualPrompt:
		return r.VisualPrompt
	default:
		return ""
	}
}

// PrimaryUpdate carries the values written when a reference is selected.
type PrimaryUpdate struct {
	Reference    string
	ReferenceKey string
	Book         string
	Chapter      int
	Verse        int
	Text         string
}

// Translation is one code's text and media for a record.
type Translation struct {
	ID          int64
	ContentID   int64
	Code        string
	Text        string
	LongText    string
	AudioURL    string
	SubtitleURL string
	Source      Source
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasText reports whether the translation carries any text.
func (t Translation) HasText() bool {
	return strings.TrimSpace(t.Text) != ""
}

// NarrationText prefers the long-form text and falls back to the short text.
func (t Translation) NarrationText() string {
	if long := strings.TrimSpace(t.LongText); long != "" {
		return long
	}
	return strings.TrimSpace(t.Text)
}

// NeedsNarration reports text present with no narration audio yet.
func (t Translation) NeedsNarration() bool {
	return t.NarrationText() != "" && strings.TrimSpace(t.AudioURL) == ""
}

// UsedReference is one ledger entry.
type UsedReference struct {
	ID           int64
	ReferenceKey string
	Reference    string
	Book         string
	Chapter      int
	Verse        int
	Date         string
	ContentID    int64
	CreatedAt    time.Time
}
