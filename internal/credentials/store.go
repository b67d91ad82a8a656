package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a key has no value in a store.
var ErrNotFound = errors.New("credential not found")

// Store looks up credential values by key.
type Store interface {
	Lookup(ctx context.Context, key string) (string, error)
}

// Static serves values from an in-memory map, typically [credentials.values]
// merged with environment overrides.
type Static map[string]string

// Lookup returns the trimmed value for key.
func (s Static) Lookup(_ context.Context, key string) (string, error) {
	key = normalizeKey(key)
	if key == "" {
		return "", errors.New("credentials: key is required")
	}
	value := strings.TrimSpace(s[key])
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

// Chain consults each store in order and returns the first value found.
// Errors other than ErrNotFound stop the search.
type Chain []Store

// Lookup implements Store.
func (c Chain) Lookup(ctx context.Context, key string) (string, error) {
	for _, store := range c {
		if store == nil {
			continue
		}
		value, err := store.Lookup(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, normalizeKey(key))
}

// Optional returns the value for key and whether it was configured. Only
// lookup failures other than absence are returned as errors.
func Optional(ctx context.Context, store Store, key string) (string, bool, error) {
	if store == nil {
		return "", false, nil
	}
	value, err := store.Lookup(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// List splits a comma- or newline-separated value into trimmed entries.
func List(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
