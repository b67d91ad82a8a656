package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

// Render writes cues as an SRT document. Cues are renumbered from 1 so the
// output is always sequential.
func Render(cues []Cue) string {
	var sb strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(cue.StartMs), FormatTimestamp(cue.EndMs), cue.Text)
	}
	return sb.String()
}

// FormatTimestamp renders milliseconds as HH:MM:SS,mmm.
func FormatTimestamp(ms int) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	ms %= 3_600_000
	minutes := ms / 60_000
	ms %= 60_000
	seconds := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// ParseTimestamp reads HH:MM:SS,mmm (a period separator is also accepted)
// into milliseconds.
func ParseTimestamp(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	return hours*3_600_000 + minutes*60_000 + seconds*1000 + millis, nil
}

// Parse reads an SRT document back into cues.
func Parse(doc string) ([]Cue, error) {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil, nil
	}
	blocks := strings.Split(doc, "\n\n")
	cues := make([]Cue, 0, len(blocks))
	for _, block := range blocks {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 3 {
			return nil, fmt.Errorf("cue %d: expected index, timing, and text lines", len(cues)+1)
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("cue %d: invalid index %q", len(cues)+1, lines[0])
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("cue %d: invalid timing line %q", index, lines[1])
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("cue %d: %w", index, err)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("cue %d: %w", index, err)
		}
		cues = append(cues, Cue{
			Index:   index,
			StartMs: start,
			EndMs:   end,
			Text:    strings.Join(lines[2:], "\n"),
		})
	}
	return cues, nil
}

// Validate checks a rendered document before upload. It returns a list of
// issues; an empty slice means validation passed.
func Validate(doc string) []string {
	cues, err := Parse(doc)
	if err != nil {
		return []string{fmt.Sprintf("parse_error: %v", err)}
	}
	if len(cues) == 0 {
		return []string{"empty_subtitle_document"}
	}
	var issues []string
	for i, cue := range cues {
		if cue.Index != i+1 {
			issues = append(issues, fmt.Sprintf("numbering_gap: cue %d numbered %d", i+1, cue.Index))
		}
		if cue.EndMs < cue.StartMs {
			issues = append(issues, fmt.Sprintf("negative_duration: cue %d", cue.Index))
		}
		if strings.TrimSpace(cue.Text) == "" {
			issues = append(issues, fmt.Sprintf("empty_text: cue %d", cue.Index))
		}
		if i > 0 && cue.StartMs < cues[i-1].EndMs {
			issues = append(issues, fmt.Sprintf("overlap: cue %d starts before cue %d ends", cue.Index, cues[i-1].Index))
		}
	}
	return issues
}
