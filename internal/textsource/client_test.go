package textsource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchTextShortAndLong(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if got := r.Header.Get("api-key"); got != "key" {
			t.Errorf("unexpected api key %q", got)
		}
		if got := r.URL.Query().Get("content-type"); got != "text" {
			t.Errorf("unexpected content-type query %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"content": "  <p>For God so loved</p>\n the world[a] ¶ "},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/", APIKey: "key"})
	text, err := client.FetchText(context.Background(), "JHN.3.16", "KJV", Short)
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}
	if text != "For God so loved the world" {
		t.Fatalf("unexpected text %q", text)
	}
	if _, err := client.FetchText(context.Background(), "JHN.3.16", "KJV", Long); err != nil {
		t.Fatalf("FetchText long: %v", err)
	}
	want := []string{"/bibles/KJV/verses/JHN.3.16", "/bibles/KJV/passages/JHN.3.16"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("unexpected paths %v", paths)
	}
}

func TestFetchTextNotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	text, err := NewClient(Config{BaseURL: server.URL}).FetchText(context.Background(), "JHN.3.16", "NVI", Short)
	if err != nil || text != "" {
		t.Fatalf("expected empty text without error, got %q %v", text, err)
	}
}

func TestFetchTextServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).FetchText(context.Background(), "JHN.3.16", "RVR1960", Short)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected StatusError 429, got %v", err)
	}
}

func TestFetchTextRequiresArguments(t *testing.T) {
	if _, err := NewClient(Config{}).FetchText(context.Background(), "", "KJV", Short); err == nil {
		t.Fatal("expected error for empty reference")
	}
}

func TestCleanText(t *testing.T) {
	tests := map[string]string{
		"<span class=\"v\">16</span>&nbsp;For God": "16 For God",
		"a[1]  b c": "a b c",
		"":          "",
	}
	for input, want := range tests {
		if got := CleanText(input); got != want {
			t.Errorf("CleanText(%q) = %q, want %q", input, got, want)
		}
	}
}
