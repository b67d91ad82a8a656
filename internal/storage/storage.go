package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"dailybread/internal/textutil"
)

// Content types used by the pipeline.
const (
	ContentTypeMP3 = "audio/mpeg"
	ContentTypeSRT = "application/x-subrip"
)

// Uploader stores data under key and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, key, contentType string) (string, error)
}

// Key builds the object key <category>/<date>/<code>.<ext>. The code is
// reduced to a lowercase token; category and date are used as given.
func Key(category, date, code, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	return fmt.Sprintf("%s/%s/%s.%s",
		strings.Trim(strings.TrimSpace(category), "/"),
		strings.TrimSpace(date),
		textutil.SanitizeToken(code),
		ext,
	)
}

// publicURL joins base and key with exactly one slash.
func publicURL(base, key string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	key = strings.TrimLeft(key, "/")
	if base == "" {
		return key
	}
	return base + "/" + key
}

func validateKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("storage: key is required")
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned != key || strings.HasPrefix(key, "../") {
		return "", fmt.Errorf("storage: key %q is not a clean relative path", key)
	}
	return key, nil
}
