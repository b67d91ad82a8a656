package testsupport

import (
	"path/filepath"
	"testing"

	"dailybread/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Pacing delays are zeroed so pipeline tests run without sleeping.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StorageDir = filepath.Join(base, "storage")
	cfgVal.Storage.PublicBaseURL = "https://media.test"
	cfgVal.Pipeline.TextDelayMS = 0
	cfgVal.Pipeline.SpeechDelayMS = 0
	cfgVal.Credentials.Values = map[string]string{}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithTranslations replaces the active translation codes.
func WithTranslations(translations ...config.Translation) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Translations = translations
		if len(translations) > 0 {
			b.cfg.Pipeline.PrimaryCode = translations[0].Code
		}
	}
}

// WithCredential sets one static credential value.
func WithCredential(key, value string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Credentials.Values[key] = value
	}
}
