package subtitles

import (
	"strings"
	"unicode/utf8"

	"dailybread/internal/timing"
)

// Default cue limits.
const (
	DefaultMaxCueMS    = 3500
	DefaultMaxCueChars = 42
)

// Options bounds cue size.
type Options struct {
	MaxCueMS    int
	MaxCueChars int
}

func (o Options) withDefaults() Options {
	if o.MaxCueMS <= 0 {
		o.MaxCueMS = DefaultMaxCueMS
	}
	if o.MaxCueChars <= 0 {
		o.MaxCueChars = DefaultMaxCueChars
	}
	return o
}

// Cue is one displayed subtitle block.
type Cue struct {
	Index   int
	StartMs int
	EndMs   int
	Text    string
}

// Build groups words into cues. A cue closes when adding the next word would
// exceed either limit, or after a word ending a sentence. A single word longer
// than MaxCueChars still gets its own cue.
func Build(words []timing.WordTiming, opts Options) []Cue {
	opts = opts.withDefaults()
	cues := make([]Cue, 0, len(words)/4+1)

	var current []timing.WordTiming
	chars := 0
	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, len(current))
		for i, w := range current {
			texts[i] = w.Text
		}
		cues = append(cues, Cue{
			Index:   len(cues) + 1,
			StartMs: current[0].StartMs,
			EndMs:   current[len(current)-1].EndMs,
			Text:    strings.Join(texts, " "),
		})
		current = current[:0]
		chars = 0
	}

	for _, word := range words {
		text := strings.TrimSpace(word.Text)
		if text == "" {
			continue
		}
		word.Text = text
		width := utf8.RuneCountInString(text)
		if len(current) > 0 {
			tooLong := chars+1+width > opts.MaxCueChars
			tooSlow := word.EndMs-current[0].StartMs > opts.MaxCueMS
			if tooLong || tooSlow {
				flush()
			}
		}
		if len(current) > 0 {
			chars++
		}
		current = append(current, word)
		chars += width
		if endsSentence(text) {
			flush()
		}
	}
	flush()

	// Provider jitter can leave a word ending after the next one starts.
	for i := 0; i < len(cues)-1; i++ {
		if cues[i].EndMs > cues[i+1].StartMs {
			cues[i].EndMs = cues[i+1].StartMs
		}
	}
	return cues
}

// BuildDocument groups words and renders the SRT document in one step.
func BuildDocument(words []timing.WordTiming, opts Options) string {
	return Render(Build(words, opts))
}

func endsSentence(word string) bool {
	word = strings.TrimRight(word, "\"'”’)]")
	if word == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(word)
	switch last {
	case '.', '!', '?', ';', '。', '！', '？':
		return true
	default:
		return false
	}
}
