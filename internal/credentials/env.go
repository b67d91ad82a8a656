package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Env reads <prefix><KEY> from the process environment, e.g.
// DAILYBREAD_ALIGNMENT_API_KEY for alignment_api_key.
type Env string

// Lookup implements Store.
func (e Env) Lookup(_ context.Context, key string) (string, error) {
	key = normalizeKey(key)
	if key == "" {
		return "", fmt.Errorf("credentials: key is required")
	}
	value, ok := os.LookupEnv(string(e) + strings.ToUpper(key))
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return strings.TrimSpace(value), nil
}
