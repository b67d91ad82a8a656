package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"dailybread/internal/timing"
)

const alignmentProvider = "alignment tts"

// AlignmentConfig configures the character-alignment provider.
type AlignmentConfig struct {
	BaseURL        string
	Model          string
	OutputFormat   string
	TimeoutSeconds int
}

// AlignmentClient calls a text-to-speech endpoint that returns base64 audio
// with a per-character alignment in seconds.
type AlignmentClient struct {
	cfg    AlignmentConfig
	client *http.Client
}

// NewAlignmentClient constructs the alignment adapter.
func NewAlignmentClient(cfg AlignmentConfig, opts ...Option) *AlignmentClient {
	o := buildHTTPOptions(cfg.TimeoutSeconds, opts)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &AlignmentClient{cfg: cfg, client: o.client}
}

// Name implements Synthesizer.
func (c *AlignmentClient) Name() string { return "alignment" }

type alignmentRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

type alignmentResponse struct {
	AudioBase64 string `json:"audio_base64"`
	Alignment   *struct {
		Characters []string  `json:"characters"`
		Starts     []float64 `json:"character_start_times_seconds"`
		Ends       []float64 `json:"character_end_times_seconds"`
	} `json:"alignment"`
}

// Synthesize implements Synthesizer.
func (c *AlignmentClient) Synthesize(ctx context.Context, text, voiceID, credential string) (Result, error) {
	if err := validateRequest(alignmentProvider, text, voiceID, credential); err != nil {
		return Result{}, err
	}
	endpoint := fmt.Sprintf("%s/text-to-speech/%s/with-timestamps", c.cfg.BaseURL, url.PathEscape(voiceID))
	if c.cfg.OutputFormat != "" {
		endpoint += "?output_format=" + url.QueryEscape(c.cfg.OutputFormat)
	}
	var resp alignmentResponse
	err := postJSON(ctx, c.client, alignmentProvider, endpoint,
		map[string]string{"xi-api-key": credential},
		alignmentRequest{Text: text, ModelID: c.cfg.Model},
		&resp,
	)
	if err != nil {
		return Result{}, err
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil {
		return Result{}, fmt.Errorf("%s: decode audio: %w", alignmentProvider, err)
	}
	if len(audio) == 0 {
		return Result{}, fmt.Errorf("%s: empty audio", alignmentProvider)
	}
	if resp.Alignment == nil {
		return Result{}, fmt.Errorf("%s: response has no alignment", alignmentProvider)
	}
	a := resp.Alignment
	if len(a.Starts) != len(a.Characters) || len(a.Ends) != len(a.Characters) {
		return Result{}, fmt.Errorf("%s: alignment arrays differ in length (%d chars, %d starts, %d ends): %w",
			alignmentProvider, len(a.Characters), len(a.Starts), len(a.Ends), timing.ErrLengthMismatch)
	}
	alignment := timing.CharacterAlignment{
		Characters: a.Characters,
		StartMs:    make([]int, len(a.Characters)),
		DurationMs: make([]int, len(a.Characters)),
	}
	for i := range a.Characters {
		start := secondsToMs(a.Starts[i])
		end := secondsToMs(a.Ends[i])
		alignment.StartMs[i] = start
		alignment.DurationMs[i] = max(end-start, 0)
	}
	return Result{Audio: audio, ContentType: ContentTypeForFormat(c.cfg.OutputFormat), Timing: alignment}, nil
}

func secondsToMs(seconds float64) int {
	return int(math.Round(seconds * 1000))
}
