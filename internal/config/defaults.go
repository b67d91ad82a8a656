package config

const (
	defaultConfigPath         = "~/.config/dailybread/config.toml"
	defaultDataDir            = "~/.local/share/dailybread"
	defaultLogDir             = "~/.local/share/dailybread/logs"
	defaultStorageDir         = "~/.local/share/dailybread/storage"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 14
	defaultPrimaryCode        = "KJV"
	defaultLanguage           = "en"
	defaultTextDelayMS        = 200
	defaultSpeechDelayMS      = 500
	defaultRecentQuotes       = 30
	defaultMaxCueMS           = 3500
	defaultMaxCueChars        = 42
	defaultAlignmentBaseURL   = "https://api.elevenlabs.io/v1"
	defaultDurationBaseURL    = "https://tts.dailybread.app/v1"
	defaultSpeechModel        = "eleven_multilingual_v2"
	defaultSpeechOutputFormat = "mp3_44100_128"
	defaultSpeechTimeout      = 120
	defaultTextSourceBaseURL  = "https://api.scripture.api.bible/v1"
	defaultTextSourceTimeout  = 20
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-2.5-flash"
	defaultLLMReferer         = "https://github.com/dailybread/dailybread"
	defaultLLMTitle           = "Daily Bread Content Pipeline"
	defaultLLMTimeoutSeconds  = 60
	defaultLLMRequestsPerMin  = 30
	defaultStoragePublicURL   = "file://"
	defaultEventsSubject      = "dailybread.progress"
	defaultTelemetryService   = "dailybread"
	defaultLambdaDayOffset    = 1
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			StorageDir: defaultStorageDir,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Pipeline: Pipeline{
			PrimaryCode:   defaultPrimaryCode,
			Language:      defaultLanguage,
			TextDelayMS:   defaultTextDelayMS,
			SpeechDelayMS: defaultSpeechDelayMS,
			RecentQuotes:  defaultRecentQuotes,
			Translations:  defaultTranslations(),
		},
		Subtitles: Subtitles{
			MaxCueMS:    defaultMaxCueMS,
			MaxCueChars: defaultMaxCueChars,
		},
		Speech: Speech{
			AlignmentBaseURL: defaultAlignmentBaseURL,
			DurationBaseURL:  defaultDurationBaseURL,
			Model:            defaultSpeechModel,
			OutputFormat:     defaultSpeechOutputFormat,
			TimeoutSeconds:   defaultSpeechTimeout,
		},
		TextSource: TextSource{
			BaseURL:        defaultTextSourceBaseURL,
			TimeoutSeconds: defaultTextSourceTimeout,
		},
		LLM: LLM{
			BaseURL:           defaultLLMBaseURL,
			Model:             defaultLLMModel,
			Referer:           defaultLLMReferer,
			Title:             defaultLLMTitle,
			TimeoutSeconds:    defaultLLMTimeoutSeconds,
			RequestsPerMinute: defaultLLMRequestsPerMin,
		},
		Storage: Storage{
			Backend: StorageLocal,
		},
		Events: Events{
			Subject: defaultEventsSubject,
		},
		Telemetry: Telemetry{
			ServiceName: defaultTelemetryService,
		},
		Lambda: Lambda{
			Modes:     []string{"devotional", "affirmation"},
			DayOffset: defaultLambdaDayOffset,
		},
	}
}

func defaultTranslations() []Translation {
	return []Translation{
		{Code: "KJV", Language: "en"},
		{Code: "WEB", Language: "en"},
		{Code: "RVR1960", Language: "es", Throttled: true},
	}
}
