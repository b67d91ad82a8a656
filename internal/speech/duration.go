package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"dailybread/internal/timing"
)

const durationProvider = "duration tts"

// DurationConfig configures the word-duration provider.
type DurationConfig struct {
	BaseURL        string
	OutputFormat   string
	TimeoutSeconds int
}

// DurationClient calls a text-to-speech endpoint that returns base64 audio
// with one duration per whitespace-separated word.
type DurationClient struct {
	cfg    DurationConfig
	client *http.Client
}

// NewDurationClient constructs the duration adapter.
func NewDurationClient(cfg DurationConfig, opts ...Option) *DurationClient {
	o := buildHTTPOptions(cfg.TimeoutSeconds, opts)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "mp3"
	}
	return &DurationClient{cfg: cfg, client: o.client}
}

// Name implements Synthesizer.
func (c *DurationClient) Name() string { return "duration" }

type durationRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

type durationResponse struct {
	Audio string `json:"audio"`
	Words []struct {
		Word       string `json:"word"`
		DurationMs int    `json:"duration_ms"`
	} `json:"words"`
}

// Synthesize implements Synthesizer.
func (c *DurationClient) Synthesize(ctx context.Context, text, voiceID, credential string) (Result, error) {
	if err := validateRequest(durationProvider, text, voiceID, credential); err != nil {
		return Result{}, err
	}
	var resp durationResponse
	err := postJSON(ctx, c.client, durationProvider, c.cfg.BaseURL+"/synthesize",
		map[string]string{"Authorization": "Bearer " + credential},
		durationRequest{Text: text, Voice: voiceID, Format: c.cfg.OutputFormat},
		&resp,
	)
	if err != nil {
		return Result{}, err
	}
	audio, err := base64.StdEncoding.DecodeString(resp.Audio)
	if err != nil {
		return Result{}, fmt.Errorf("%s: decode audio: %w", durationProvider, err)
	}
	if len(audio) == 0 {
		return Result{}, fmt.Errorf("%s: empty audio", durationProvider)
	}
	if len(resp.Words) == 0 {
		return Result{}, fmt.Errorf("%s: response has no word durations", durationProvider)
	}
	durations := timing.WordDurations{
		Words:       make([]string, len(resp.Words)),
		DurationsMs: make([]int, len(resp.Words)),
	}
	for i, w := range resp.Words {
		durations.Words[i] = w.Word
		durations.DurationsMs[i] = w.DurationMs
	}
	return Result{Audio: audio, ContentType: ContentTypeForFormat(c.cfg.OutputFormat), Timing: durations}, nil
}
