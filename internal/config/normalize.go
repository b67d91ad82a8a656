package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeSubtitles()
	c.normalizeSpeech()
	c.normalizeTextSource()
	c.normalizeLLM()
	c.normalizeCredentials()
	c.normalizeStorage()
	c.normalizeEvents()
	c.normalizeLambda()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		c.Paths.StorageDir = defaultStorageDir
	}
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePipeline() {
	c.Pipeline.PrimaryCode = strings.ToUpper(strings.TrimSpace(c.Pipeline.PrimaryCode))
	if c.Pipeline.PrimaryCode == "" {
		c.Pipeline.PrimaryCode = defaultPrimaryCode
	}
	c.Pipeline.Language = strings.ToLower(strings.TrimSpace(c.Pipeline.Language))
	if c.Pipeline.Language == "" {
		c.Pipeline.Language = defaultLanguage
	}
	if c.Pipeline.TextDelayMS < 0 {
		c.Pipeline.TextDelayMS = 0
	}
	if c.Pipeline.SpeechDelayMS < 0 {
		c.Pipeline.SpeechDelayMS = 0
	}
	if c.Pipeline.RecentQuotes <= 0 {
		c.Pipeline.RecentQuotes = defaultRecentQuotes
	}

	if len(c.Pipeline.Translations) == 0 {
		c.Pipeline.Translations = defaultTranslations()
	}
	translations := make([]Translation, 0, len(c.Pipeline.Translations))
	seen := make(map[string]struct{}, len(c.Pipeline.Translations))
	for _, t := range c.Pipeline.Translations {
		code := strings.ToUpper(strings.TrimSpace(t.Code))
		if code == "" {
			continue
		}
		if _, exists := seen[code]; exists {
			continue
		}
		seen[code] = struct{}{}
		lang := strings.ToLower(strings.TrimSpace(t.Language))
		if lang == "" {
			lang = c.Pipeline.Language
		}
		translations = append(translations, Translation{Code: code, Language: lang, Throttled: t.Throttled})
	}
	c.Pipeline.Translations = translations
}

func (c *Config) normalizeSubtitles() {
	if c.Subtitles.MaxCueMS <= 0 {
		c.Subtitles.MaxCueMS = defaultMaxCueMS
	}
	if c.Subtitles.MaxCueChars <= 0 {
		c.Subtitles.MaxCueChars = defaultMaxCueChars
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.AlignmentBaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.AlignmentBaseURL), "/")
	if c.Speech.AlignmentBaseURL == "" {
		c.Speech.AlignmentBaseURL = defaultAlignmentBaseURL
	}
	c.Speech.DurationBaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.DurationBaseURL), "/")
	if c.Speech.DurationBaseURL == "" {
		c.Speech.DurationBaseURL = defaultDurationBaseURL
	}
	c.Speech.DurationLanguages = normalizeList(c.Speech.DurationLanguages, strings.ToLower)
	c.Speech.Model = strings.TrimSpace(c.Speech.Model)
	if c.Speech.Model == "" {
		c.Speech.Model = defaultSpeechModel
	}
	c.Speech.OutputFormat = strings.TrimSpace(c.Speech.OutputFormat)
	if c.Speech.OutputFormat == "" {
		c.Speech.OutputFormat = defaultSpeechOutputFormat
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeout
	}
}

func (c *Config) normalizeTextSource() {
	c.TextSource.BaseURL = strings.TrimRight(strings.TrimSpace(c.TextSource.BaseURL), "/")
	if c.TextSource.BaseURL == "" {
		c.TextSource.BaseURL = defaultTextSourceBaseURL
	}
	c.TextSource.APIKey = strings.TrimSpace(c.TextSource.APIKey)
	if c.TextSource.TimeoutSeconds <= 0 {
		c.TextSource.TimeoutSeconds = defaultTextSourceTimeout
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RequestsPerMinute < 0 {
		c.LLM.RequestsPerMinute = 0
	}
}

func (c *Config) normalizeCredentials() {
	c.Credentials.SSMPrefix = strings.TrimSpace(c.Credentials.SSMPrefix)
	if c.Credentials.SSMPrefix != "" && !strings.HasPrefix(c.Credentials.SSMPrefix, "/") {
		c.Credentials.SSMPrefix = "/" + c.Credentials.SSMPrefix
	}
	c.Credentials.SSMPrefix = strings.TrimRight(c.Credentials.SSMPrefix, "/")
	c.Credentials.SSMRegion = strings.TrimSpace(c.Credentials.SSMRegion)
	values := make(map[string]string, len(c.Credentials.Values))
	for key, value := range c.Credentials.Values {
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		values[key] = value
	}
	c.Credentials.Values = values
}

func (c *Config) normalizeStorage() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageLocal
	}
	c.Storage.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.PublicBaseURL), "/")
	if c.Storage.PublicBaseURL == "" && c.Storage.Backend == StorageLocal {
		c.Storage.PublicBaseURL = defaultStoragePublicURL + c.Paths.StorageDir
	}
	c.Storage.S3Bucket = strings.TrimSpace(c.Storage.S3Bucket)
	c.Storage.S3Region = strings.TrimSpace(c.Storage.S3Region)
	c.Storage.S3Prefix = strings.Trim(strings.TrimSpace(c.Storage.S3Prefix), "/")
}

func (c *Config) normalizeEvents() {
	c.Events.NATSURL = strings.TrimSpace(c.Events.NATSURL)
	c.Events.Subject = strings.Trim(strings.TrimSpace(c.Events.Subject), ".")
	if c.Events.Subject == "" {
		c.Events.Subject = defaultEventsSubject
	}
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = defaultTelemetryService
	}
}

func (c *Config) normalizeLambda() {
	c.Lambda.Modes = normalizeList(c.Lambda.Modes, strings.ToLower)
	if len(c.Lambda.Modes) == 0 {
		c.Lambda.Modes = []string{"devotional"}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func normalizeList(values []string, transform func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := transform(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
