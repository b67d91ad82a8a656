package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dailybread/internal/timing"
)

const (
	defaultTimeout   = 120 * time.Second
	maxErrorBodySize = 512
)

// Result is one synthesis output.
type Result struct {
	Audio       []byte
	ContentType string
	Timing      timing.Source
}

// Synthesizer turns text into audio with timing data.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, voiceID, credential string) (Result, error)
}

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, strings.TrimSpace(e.Body))
}

// ContentTypeForFormat maps a provider output format such as
// "mp3_44100_128" or "pcm_16000" to a MIME type. Unknown or empty formats
// are treated as MP3.
func ContentTypeForFormat(format string) string {
	codec := strings.ToLower(strings.TrimSpace(format))
	if i := strings.IndexByte(codec, '_'); i >= 0 {
		codec = codec[:i]
	}
	switch codec {
	case "pcm":
		return "audio/pcm"
	case "wav":
		return "audio/wav"
	case "ulaw":
		return "audio/basic"
	case "opus":
		return "audio/opus"
	case "ogg":
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}

// Option customizes an adapter.
type Option func(*httpOptions)

type httpOptions struct {
	client *http.Client
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *httpOptions) {
		if client != nil {
			o.client = client
		}
	}
}

func buildHTTPOptions(timeoutSeconds int, opts []Option) httpOptions {
	timeout := defaultTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	o := httpOptions{client: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func validateRequest(provider, text, voiceID, credential string) error {
	switch {
	case strings.TrimSpace(text) == "":
		return fmt.Errorf("%s: text is required", provider)
	case strings.TrimSpace(voiceID) == "":
		return fmt.Errorf("%s: voice id is required", provider)
	case strings.TrimSpace(credential) == "":
		return fmt.Errorf("%s: credential is required", provider)
	}
	return nil
}

// postJSON sends payload and decodes a JSON response into out.
func postJSON(ctx context.Context, client *http.Client, provider, endpoint string, headers map[string]string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%s: new request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request: %w", provider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", provider, err)
	}
	return nil
}
