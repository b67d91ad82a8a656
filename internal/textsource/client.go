package textsource

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Granularity selects how much text is returned.
type Granularity string

const (
	Short Granularity = "short"
	Long  Granularity = "long"
)

const (
	defaultTimeout   = 20 * time.Second
	maxErrorBodySize = 512
)

// Fetcher is the capability the pipeline consumes.
type Fetcher interface {
	FetchText(ctx context.Context, referenceKey, code string, granularity Granularity) (string, error)
}

// Config configures the HTTP client.
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Client queries a verse-text API over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a text-source client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned for non-2xx responses other than 404.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("text source: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type textResponse struct {
	Data struct {
		Content string `json:"content"`
	} `json:"data"`
}

// FetchText returns the text of referenceKey in code.
func (c *Client) FetchText(ctx context.Context, referenceKey, code string, granularity Granularity) (string, error) {
	referenceKey = strings.TrimSpace(referenceKey)
	code = strings.TrimSpace(code)
	if referenceKey == "" || code == "" {
		return "", fmt.Errorf("text source: reference and code are required")
	}
	if granularity == "" {
		granularity = Short
	}
	resource := "verses"
	if granularity == Long {
		resource = "passages"
	}
	endpoint := fmt.Sprintf("%s/bibles/%s/%s/%s?content-type=text&include-verse-numbers=false",
		c.cfg.BaseURL, url.PathEscape(code), resource, url.PathEscape(referenceKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("text source: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("text source: request %s %s: %w", code, referenceKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	var payload textResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("text source: decode response: %w", err)
	}
	return CleanText(payload.Data.Content), nil
}

var (
	markupPattern   = regexp.MustCompile(`<[^>]*>`)
	footnotePattern = regexp.MustCompile(`\[[0-9a-z]{1,3}\]`)
	pilcrowReplacer = strings.NewReplacer("\u00b6", " ")
)

// CleanText strips markup, footnote markers, and collapses whitespace.
func CleanText(text string) string {
	text = markupPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = footnotePattern.ReplaceAllString(text, "")
	text = pilcrowReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
