package timing

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrLengthMismatch reports parallel timing arrays of different lengths.
var ErrLengthMismatch = errors.New("timing arrays differ in length")

// WordTiming is one spoken word with its position in the audio.
type WordTiming struct {
	Text    string `json:"text"`
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
}

// DurationMs returns the word's display duration.
func (w WordTiming) DurationMs() int {
	return w.EndMs - w.StartMs
}

// Source is provider-native timing data. It is implemented by
// CharacterAlignment and WordDurations only.
type Source interface {
	timingSource()
}

// CharacterAlignment is a per-character alignment stream covering the whole
// synthesized text. The three slices are parallel.
type CharacterAlignment struct {
	Characters []string
	StartMs    []int
	DurationMs []int
}

// WordDurations lists per-word durations with implied sequential starts.
type WordDurations struct {
	Words       []string
	DurationsMs []int
}

func (CharacterAlignment) timingSource() {}
func (WordDurations) timingSource()      {}

// Normalize converts either timing shape into the canonical sequence.
func Normalize(src Source) ([]WordTiming, error) {
	switch s := src.(type) {
	case CharacterAlignment:
		return FromAlignment(s)
	case *CharacterAlignment:
		if s == nil {
			return nil, errors.New("timing: nil character alignment")
		}
		return FromAlignment(*s)
	case WordDurations:
		return FromDurations(s)
	case *WordDurations:
		if s == nil {
			return nil, errors.New("timing: nil word durations")
		}
		return FromDurations(*s)
	case nil:
		return nil, errors.New("timing: no timing data")
	default:
		return nil, fmt.Errorf("timing: unsupported source %T", src)
	}
}

// FromAlignment groups consecutive non-whitespace characters into words. A
// word starts at its first character's start and ends at its last
// character's start plus duration. Whitespace characters only separate words.
func FromAlignment(a CharacterAlignment) ([]WordTiming, error) {
	if len(a.Characters) != len(a.StartMs) || len(a.Characters) != len(a.DurationMs) {
		return nil, fmt.Errorf("timing: %w: characters=%d starts=%d durations=%d",
			ErrLengthMismatch, len(a.Characters), len(a.StartMs), len(a.DurationMs))
	}

	words := make([]WordTiming, 0, len(a.Characters)/4+1)
	var (
		text       strings.Builder
		start, end int
		inWord     bool
	)
	flush := func() {
		if !inWord {
			return
		}
		words = append(words, WordTiming{Text: norm.NFC.String(text.String()), StartMs: start, EndMs: end})
		text.Reset()
		inWord = false
	}

	for i, ch := range a.Characters {
		if isBoundary(ch) {
			flush()
			continue
		}
		charStart := max(a.StartMs[i], 0)
		charEnd := charStart + max(a.DurationMs[i], 0)
		if !inWord {
			inWord = true
			start = charStart
			end = charEnd
		} else if charEnd > end {
			end = charEnd
		}
		text.WriteString(ch)
	}
	flush()

	return enforceOrder(words), nil
}

// FromDurations lays words end to end from a clock starting at zero.
func FromDurations(d WordDurations) ([]WordTiming, error) {
	if len(d.Words) != len(d.DurationsMs) {
		return nil, fmt.Errorf("timing: %w: words=%d durations=%d", ErrLengthMismatch, len(d.Words), len(d.DurationsMs))
	}

	words := make([]WordTiming, 0, len(d.Words))
	clock := 0
	for i, word := range d.Words {
		duration := max(d.DurationsMs[i], 0)
		start := clock
		clock += duration
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		words = append(words, WordTiming{Text: norm.NFC.String(word), StartMs: start, EndMs: clock})
	}
	return words, nil
}

// Words returns the text of each timing in order.
func Words(timings []WordTiming) []string {
	out := make([]string, len(timings))
	for i, t := range timings {
		out[i] = t.Text
	}
	return out
}

// Validate reports the first ordering violation in timings.
func Validate(timings []WordTiming) error {
	for i, t := range timings {
		if t.StartMs < 0 {
			return fmt.Errorf("timing: word %d %q starts before zero", i, t.Text)
		}
		if t.EndMs < t.StartMs {
			return fmt.Errorf("timing: word %d %q has negative duration", i, t.Text)
		}
		if i > 0 && t.StartMs < timings[i-1].StartMs {
			return fmt.Errorf("timing: word %d %q starts before word %d", i, t.Text, i-1)
		}
	}
	return nil
}

func isBoundary(ch string) bool {
	if ch == "" {
		return true
	}
	for _, r := range ch {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// enforceOrder pulls any word that starts before its predecessor forward to
// the predecessor's start. Providers occasionally report jittered offsets.
func enforceOrder(words []WordTiming) []WordTiming {
	for i := 1; i < len(words); i++ {
		prev := words[i-1]
		if words[i].StartMs < prev.StartMs {
			words[i].StartMs = prev.StartMs
		}
		if words[i].EndMs < words[i].StartMs {
			words[i].EndMs = words[i].StartMs
		}
	}
	return words
}
