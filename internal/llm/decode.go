package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSON decodes JSON from an LLM response, stripping code fences and
// surrounding prose when the direct decode fails.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, summarizePayloadSnippet(sanitized))
	}
	return nil
}

// CleanProse strips code fences, wrapping quotes, and a leading "Label:" line
// models sometimes add to free-text answers.
func CleanProse(content string) string {
	text := strings.TrimSpace(stripCodeFenceBlock(content))
	if first, rest, ok := strings.Cut(text, "\n"); ok {
		head := strings.TrimSpace(first)
		if strings.HasSuffix(head, ":") && len(head) <= 40 {
			text = strings.TrimSpace(rest)
		}
	}
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if strings.HasPrefix(text, pair[0]) && strings.HasSuffix(text, pair[1]) && len(text) > len(pair[0])+len(pair[1]) {
			inner := text[len(pair[0]) : len(text)-len(pair[1])]
			if !strings.Contains(inner, pair[0]) {
				text = strings.TrimSpace(inner)
			}
		}
	}
	return text
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	for _, lang := range []string{"json", "text"} {
		if len(body) >= len(lang) && strings.EqualFold(body[:len(lang)], lang) {
			body = strings.TrimLeft(body[len(lang):], " \t\r\n")
			break
		}
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
