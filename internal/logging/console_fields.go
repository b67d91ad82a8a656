package logging

import (
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
)

// Keys rendered first, in this order, when present.
var highlightKeys = []string{
	FieldAlert,
	FieldEventType,
	"reference",
	"status",
	"created",
	"day",
	"total",
	"generated",
	"failed",
	"skipped",
	"url",
	"voice",
	"cues",
	"words",
	"audio_bytes",
	"error",
	FieldErrorKind,
	FieldErrorHint,
	FieldImpact,
}

// debugOnlyKeys are hidden from info-level console output.
var debugOnlyKeys = map[string]struct{}{
	FieldRunID:    {},
	"prompt":      {},
	"response":    {},
	"request_url": {},
	"attempt":     {},
}

func orderFields(fields []kv, includeDebug bool) []kv {
	ordered := make([]kv, 0, len(fields))
	used := make([]bool, len(fields))
	for _, key := range highlightKeys {
		for idx, field := range fields {
			if !used[idx] && field.key == key {
				used[idx] = true
				ordered = append(ordered, field)
				break
			}
		}
	}
	for idx, field := range fields {
		if used[idx] {
			continue
		}
		if _, debugOnly := debugOnlyKeys[field.key]; debugOnly && !includeDebug {
			continue
		}
		ordered = append(ordered, field)
	}
	return ordered
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	if isByteSizeKey(key) {
		switch v.Kind() {
		case slog.KindInt64:
			if v.Int64() >= 0 {
				return humanize.Bytes(uint64(v.Int64()))
			}
		case slog.KindUint64:
			return humanize.Bytes(v.Uint64())
		}
	}
	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	value := formatValue(v)
	if key == "error" && len(value) > 240 {
		value = value[:240] + "..."
	}
	return value
}

func isByteSizeKey(key string) bool {
	return strings.HasSuffix(key, "_bytes") || key == "size"
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldErrorKind:
		return "Error Kind"
	case FieldRunID:
		return "Run"
	case "url":
		return "URL"
	case "audio_bytes":
		return "Audio"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
