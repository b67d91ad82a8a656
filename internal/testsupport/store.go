package testsupport

import (
	"context"
	"testing"

	"dailybread/internal/config"
	"dailybread/internal/content"
)

// MustOpenStore opens a content.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *content.Store {
	t.Helper()

	store, err := content.Open(cfg)
	if err != nil {
		t.Fatalf("content.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRecord creates (or fetches) a record for tests using the provided store.
func NewRecord(t testing.TB, store *content.Store, date string, mode content.Mode) *content.Record {
	t.Helper()

	rec, _, err := store.FindOrCreateRecord(context.Background(), date, mode, "en")
	if err != nil {
		t.Fatalf("store.FindOrCreateRecord: %v", err)
	}
	return rec
}
