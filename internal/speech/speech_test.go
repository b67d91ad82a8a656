package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"dailybread/internal/timing"
)

func TestAlignmentClientSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/voice-1/with-timestamps" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("output_format"); got != "mp3_44100_128" {
			t.Errorf("unexpected output format %q", got)
		}
		if got := r.Header.Get("xi-api-key"); got != "secret" {
			t.Errorf("unexpected api key header %q", got)
		}
		var req alignmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "Hi you" || req.ModelID != "model-x" {
			t.Errorf("unexpected request %#v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString([]byte("mp3")),
			"alignment": map[string]any{
				"characters":                    []string{"H", "i", " ", "y", "o", "u"},
				"character_start_times_seconds": []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5},
				"character_end_times_seconds":   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.65},
			},
		})
	}))
	defer server.Close()

	client := NewAlignmentClient(AlignmentConfig{BaseURL: server.URL + "/", Model: "model-x", OutputFormat: "mp3_44100_128"})
	res, err := client.Synthesize(context.Background(), "Hi you", "voice-1", "secret")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(res.Audio) != "mp3" || res.ContentType != "audio/mpeg" {
		t.Fatalf("unexpected audio %q %q", res.Audio, res.ContentType)
	}
	words, err := timing.Normalize(res.Timing)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []timing.WordTiming{{Text: "Hi", StartMs: 0, EndMs: 200}, {Text: "you", StartMs: 300, EndMs: 650}}
	if !reflect.DeepEqual(words, want) {
		t.Fatalf("words = %#v, want %#v", words, want)
	}
}

func TestAlignmentClientRejectsMismatchedArrays(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString([]byte("mp3")),
			"alignment": map[string]any{
				"characters":                    []string{"a", "b"},
				"character_start_times_seconds": []float64{0},
				"character_end_times_seconds":   []float64{0.1, 0.2},
			},
		})
	}))
	defer server.Close()

	client := NewAlignmentClient(AlignmentConfig{BaseURL: server.URL})
	_, err := client.Synthesize(context.Background(), "ab", "v", "k")
	if !errors.Is(err, timing.ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestAlignmentClientStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid key"}`))
	}))
	defer server.Close()

	client := NewAlignmentClient(AlignmentConfig{BaseURL: server.URL})
	_, err := client.Synthesize(context.Background(), "text", "v", "k")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected StatusError 401, got %v", err)
	}
}

func TestAlignmentClientContentTypeFollowsOutputFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("output_format"); got != "pcm_16000" {
			t.Errorf("unexpected output format %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString([]byte("pcm")),
			"alignment": map[string]any{
				"characters":                    []string{"O", "k"},
				"character_start_times_seconds": []float64{0, 0.1},
				"character_end_times_seconds":   []float64{0.1, 0.2},
			},
		})
	}))
	defer server.Close()

	client := NewAlignmentClient(AlignmentConfig{BaseURL: server.URL, OutputFormat: "pcm_16000"})
	res, err := client.Synthesize(context.Background(), "Ok", "voice-1", "secret")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.ContentType != "audio/pcm" {
		t.Fatalf("expected audio/pcm, got %q", res.ContentType)
	}
}

func TestContentTypeForFormat(t *testing.T) {
	cases := map[string]string{
		"":              "audio/mpeg",
		"mp3_44100_128": "audio/mpeg",
		"mp3":           "audio/mpeg",
		"pcm_16000":     "audio/pcm",
		"ulaw_8000":     "audio/basic",
		"opus_48000_64": "audio/opus",
		"WAV":           "audio/wav",
		"flac_44100":    "audio/mpeg",
	}
	for format, want := range cases {
		if got := ContentTypeForFormat(format); got != want {
			t.Fatalf("ContentTypeForFormat(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestDurationClientSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synthesize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req durationRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Voice != "maria" || req.Format != "mp3" {
			t.Errorf("unexpected request %#v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"audio": base64.StdEncoding.EncodeToString([]byte("wave")),
			"words": []map[string]any{
				{"word": "Dios", "duration_ms": 300},
				{"word": "es", "duration_ms": 0},
				{"word": "amor.", "duration_ms": 450},
			},
		})
	}))
	defer server.Close()

	client := NewDurationClient(DurationConfig{BaseURL: server.URL})
	res, err := client.Synthesize(context.Background(), "Dios es amor.", "maria", "token")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	words, err := timing.Normalize(res.Timing)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []timing.WordTiming{
		{Text: "Dios", StartMs: 0, EndMs: 300},
		{Text: "es", StartMs: 300, EndMs: 300},
		{Text: "amor.", StartMs: 300, EndMs: 750},
	}
	if !reflect.DeepEqual(words, want) {
		t.Fatalf("words = %#v, want %#v", words, want)
	}
}

func TestDurationClientRequiresWords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"audio": base64.StdEncoding.EncodeToString([]byte("x"))})
	}))
	defer server.Close()

	if _, err := NewDurationClient(DurationConfig{BaseURL: server.URL}).Synthesize(context.Background(), "a", "v", "k"); err == nil {
		t.Fatal("expected error for missing word durations")
	}
}

func TestSynthesizeValidatesInput(t *testing.T) {
	adapters := []Synthesizer{
		NewAlignmentClient(AlignmentConfig{BaseURL: "http://unused"}),
		NewDurationClient(DurationConfig{BaseURL: "http://unused"}),
	}
	for _, adapter := range adapters {
		if _, err := adapter.Synthesize(context.Background(), " ", "v", "k"); err == nil {
			t.Errorf("%s: expected error for empty text", adapter.Name())
		}
		if _, err := adapter.Synthesize(context.Background(), "text", "", "k"); err == nil {
			t.Errorf("%s: expected error for empty voice", adapter.Name())
		}
		if _, err := adapter.Synthesize(context.Background(), "text", "v", ""); err == nil {
			t.Errorf("%s: expected error for empty credential", adapter.Name())
		}
	}
}
