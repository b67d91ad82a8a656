package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestCompleteSendsHeadersAndPrompts(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "Daily" {
			t.Errorf("unexpected title header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		completionHandler(t, "  Be still and know.  ")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo", Title: "Daily"})
	got, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "Be still and know." {
		t.Fatalf("unexpected content %q", got)
	}
	if captured.Model != "demo" || len(captured.Messages) != 2 || captured.Messages[1].Content != "user" {
		t.Fatalf("unexpected request %#v", captured)
	}
	if captured.ResponseFormat != nil {
		t.Fatalf("expected no response format for prose, got %v", captured.ResponseFormat)
	}
}

func TestCompleteJSONRequestsJSONObject(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		completionHandler(t, "```json\n{\"quote\":\"Rise\"}\n```")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	raw, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if captured.ResponseFormat["type"] != jsonResponseType {
		t.Fatalf("expected json response format, got %v", captured.ResponseFormat)
	}
	var parsed struct {
		Quote string `json:"quote"`
	}
	if err := DecodeJSON(raw, &parsed); err != nil || parsed.Quote != "Rise" {
		t.Fatalf("DecodeJSON: %v %#v", err, parsed)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error without api key")
	}
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
}

func TestCompleteRetriesOnTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
			return
		}
		completionHandler(t, "ok")(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(Config{APIKey: "key", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	got, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "ok" || calls.Load() != 2 {
		t.Fatalf("expected success on second call, got %q after %d calls", got, calls.Load())
	}
	if len(slept) != 1 || slept[0] != 3*time.Second {
		t.Fatalf("expected Retry-After delay, got %v", slept)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	_, err := client.Complete(context.Background(), "system", "user")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected StatusError 401, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one call, got %d", calls.Load())
	}
}

func TestCompleteRetriesEmptyContentThenFails(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		completionHandler(t, "")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL},
		WithRetryMaxAttempts(3),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil || !strings.Contains(err.Error(), "empty content") {
		t.Fatalf("expected empty content error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestBackoffDelayCapsAtMax(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := client.backoffDelay(i + 1); got != expected {
			t.Fatalf("backoffDelay(%d) = %v, want %v", i+1, got, expected)
		}
	}
}

func TestRequestsPerMinuteInstallsLimiter(t *testing.T) {
	client := NewClient(Config{}, WithRequestsPerMinute(120))
	if client.limiter == nil {
		t.Fatal("expected limiter")
	}
	if got := client.limiter.Limit(); got != 2 {
		t.Fatalf("expected 2 requests/second, got %v", got)
	}
	if NewClient(Config{}, WithRequestsPerMinute(0)).limiter != nil {
		t.Fatal("expected no limiter when disabled")
	}
}

func TestCleanProse(t *testing.T) {
	tests := map[string]string{
		"\"You are loved.\"":                "You are loved.",
		"“Walk in light.”":                  "Walk in light.",
		"Reflection:\nGrace meets us here.": "Grace meets us here.",
		"```text\nStill waters\n```":        "Still waters",
		"He said \"go\" and \"stay\"":       "He said \"go\" and \"stay\"",
	}
	for input, want := range tests {
		if got := CleanProse(input); got != want {
			t.Errorf("CleanProse(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("7"); !ok || d != 7*time.Second {
		t.Fatalf("parseRetryAfter(7) = %v %v", d, ok)
	}
	if _, ok := parseRetryAfter("soon"); ok {
		t.Fatal("expected invalid header to be rejected")
	}
}
