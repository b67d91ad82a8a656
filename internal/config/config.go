package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	StorageDir string `toml:"storage_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"DAILYBREAD_LOG_FORMAT"`
	Level  string `toml:"level" env:"DAILYBREAD_LOG_LEVEL"`
	// RetentionDays prunes trace files older than this many days; 0 keeps everything.
	RetentionDays int `toml:"retention_days"`
}

// Translation describes one active translation/voice code.
type Translation struct {
	Code     string `toml:"code"`
	Language string `toml:"language"`
	// Throttled marks codes served by a text source with a strict request
	// ceiling; the pipeline pauses after every fetch for these codes.
	Throttled bool `toml:"throttled"`
}

// Pipeline contains generation settings shared by the day and month runs.
type Pipeline struct {
	PrimaryCode   string        `toml:"primary_code"`
	Language      string        `toml:"language"`
	TextDelayMS   int           `toml:"text_delay_ms"`
	SpeechDelayMS int           `toml:"speech_delay_ms"`
	RecentQuotes  int           `toml:"recent_quotes"`
	Translations  []Translation `toml:"translations"`
}

// Subtitles contains cue grouping limits.
type Subtitles struct {
	MaxCueMS    int `toml:"max_cue_ms"`
	MaxCueChars int `toml:"max_cue_chars"`
}

// Speech contains endpoints for the two synthesis providers.
type Speech struct {
	AlignmentBaseURL  string   `toml:"alignment_base_url"`
	DurationBaseURL   string   `toml:"duration_base_url"`
	DurationLanguages []string `toml:"duration_languages"`
	Model             string   `toml:"model"`
	OutputFormat      string   `toml:"output_format"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
}

// TextSource contains settings for the verse text API.
type TextSource struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key" env:"DAILYBREAD_TEXT_SOURCE_API_KEY"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLM contains chat-completion connection settings for the text generators.
type LLM struct {
	APIKey            string `toml:"api_key" env:"DAILYBREAD_LLM_API_KEY"`
	BaseURL           string `toml:"base_url" env:"DAILYBREAD_LLM_BASE_URL"`
	Model             string `toml:"model" env:"DAILYBREAD_LLM_MODEL"`
	Referer           string `toml:"referer"`
	Title             string `toml:"title"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// Credentials configures where provider keys and voice pools are looked up.
type Credentials struct {
	SSMPrefix string            `toml:"ssm_prefix" env:"DAILYBREAD_SSM_PREFIX"`
	SSMRegion string            `toml:"ssm_region" env:"DAILYBREAD_SSM_REGION"`
	Values    map[string]string `toml:"values"`
}

// Storage configures the upload backend.
type Storage struct {
	Backend       string `toml:"backend" env:"DAILYBREAD_STORAGE_BACKEND"`
	PublicBaseURL string `toml:"public_base_url" env:"DAILYBREAD_PUBLIC_BASE_URL"`
	S3Bucket      string `toml:"s3_bucket" env:"DAILYBREAD_S3_BUCKET"`
	S3Region      string `toml:"s3_region" env:"DAILYBREAD_S3_REGION"`
	S3Prefix      string `toml:"s3_prefix"`
}

// Events configures optional progress fan-out over NATS.
type Events struct {
	NATSURL string `toml:"nats_url" env:"DAILYBREAD_NATS_URL"`
	Subject string `toml:"subject"`
}

// Telemetry configures trace export.
type Telemetry struct {
	Enabled     bool   `toml:"enabled" env:"DAILYBREAD_TELEMETRY"`
	ServiceName string `toml:"service_name"`
}

// Lambda configures the scheduled entry point.
type Lambda struct {
	Modes     []string `toml:"modes"`
	DayOffset int      `toml:"day_offset"`
}

// Config encapsulates all configuration values for dailybread.
//
// Configuration sections by subsystem:
//   - Paths: database, log, and local storage directories
//   - Logging: log format and level
//   - Pipeline: translation codes, pacing delays, quote history depth
//   - Subtitles: cue grouping limits
//   - Speech: alignment and duration synthesis providers
//   - TextSource: verse text API
//   - LLM: narrative and quote generation
//   - Credentials: static values plus optional SSM parameter prefix
//   - Storage: local or S3 upload backend
//   - Events: NATS progress fan-out
//   - Telemetry: OpenTelemetry tracing
//   - Lambda: scheduled generation
type Config struct {
	Paths       Paths       `toml:"paths"`
	Logging     Logging     `toml:"logging"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Subtitles   Subtitles   `toml:"subtitles"`
	Speech      Speech      `toml:"speech"`
	TextSource  TextSource  `toml:"text_source"`
	LLM         LLM         `toml:"llm"`
	Credentials Credentials `toml:"credentials"`
	Storage     Storage     `toml:"storage"`
	Events      Events      `toml:"events"`
	Telemetry   Telemetry   `toml:"telemetry"`
	Lambda      Lambda      `toml:"lambda"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// Array tables append to a populated slice; start from empty so the
		// file's translations replace the defaults.
		cfg.Pipeline.Translations = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, "", false, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dailybread.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories, plus the storage
// directory when the local backend is selected.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Storage.Backend == StorageLocal {
		dirs = append(dirs, c.Paths.StorageDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "content.db")
}

// LockPath returns the path of the single-writer generation lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "generate.lock")
}

// TextDelay is the pause applied after each throttled text-source call.
func (c *Config) TextDelay() time.Duration {
	return time.Duration(c.Pipeline.TextDelayMS) * time.Millisecond
}

// SpeechDelay is the pause applied after each synthesis call.
func (c *Config) SpeechDelay() time.Duration {
	return time.Duration(c.Pipeline.SpeechDelayMS) * time.Millisecond
}

// TranslationCodes returns the configured codes in declaration order.
func (c *Config) TranslationCodes() []string {
	codes := make([]string, 0, len(c.Pipeline.Translations))
	for _, t := range c.Pipeline.Translations {
		codes = append(codes, t.Code)
	}
	return codes
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the LLM connection settings with whitespace trimmed.
type LLMConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Referer           string
	Title             string
	TimeoutSeconds    int
	RequestsPerMinute int
}

// GetLLM returns the LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:            strings.TrimSpace(c.LLM.APIKey),
		BaseURL:           strings.TrimSpace(c.LLM.BaseURL),
		Model:             strings.TrimSpace(c.LLM.Model),
		Referer:           strings.TrimSpace(c.LLM.Referer),
		Title:             strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds:    c.LLM.TimeoutSeconds,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
	}
}
