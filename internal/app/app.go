// Package app wires configuration into the pipeline collaborators shared by
// the CLI and the Lambda entry point.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dailybread/internal/config"
	"dailybread/internal/content"
	"dailybread/internal/credentials"
	"dailybread/internal/generators"
	"dailybread/internal/llm"
	"dailybread/internal/logging"
	"dailybread/internal/pipeline"
	"dailybread/internal/progress"
	"dailybread/internal/ratelimit"
	"dailybread/internal/services"
	"dailybread/internal/speech"
	"dailybread/internal/storage"
	"dailybread/internal/telemetry"
	"dailybread/internal/textsource"
	"dailybread/internal/verses"
)

// EnvCredentialPrefix is prepended to upper-cased credential keys when
// looking them up in the environment.
const EnvCredentialPrefix = "DAILYBREAD_"

// App holds the wired orchestrators and the resources they own.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Store  *content.Store
	Day    *pipeline.Day
	Month  *pipeline.Month

	closers []func(context.Context) error
}

// Option customizes wiring, mainly for tests.
type Option func(*options)

type options struct {
	uploader    storage.Uploader
	credentials credentials.Store
	observers   []progress.Sink
}

// WithUploader replaces the configured storage backend.
func WithUploader(u storage.Uploader) Option {
	return func(o *options) { o.uploader = u }
}

// WithCredentials replaces the configured credential chain.
func WithCredentials(store credentials.Store) Option {
	return func(o *options) { o.credentials = store }
}

// WithObservers adds progress sinks after the log sink.
func WithObservers(sinks ...progress.Sink) Option {
	return func(o *options) { o.observers = append(o.observers, sinks...) }
}

// New opens the store and builds every collaborator from cfg. Close must be
// called to flush traces and release the database.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (_ *App, err error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "app", "init", "config is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: telemetry.TracePattern},
	)
	shutdown, err := telemetry.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	store, err := content.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })

	creds := o.credentials
	if creds == nil {
		if creds, err = buildCredentials(ctx, cfg); err != nil {
			return nil, err
		}
	}
	uploader := o.uploader
	if uploader == nil {
		if uploader, err = buildUploader(ctx, cfg, logger); err != nil {
			return nil, err
		}
	}
	selector, err := verses.NewSelector(store)
	if err != nil {
		return nil, fmt.Errorf("reference selector: %w", err)
	}

	llmCfg := cfg.GetLLM()
	completer := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	}, llm.WithRequestsPerMinute(llmCfg.RequestsPerMinute))
	if !completer.Configured() {
		logging.WarnWithContext(logger, "llm api key not configured", "llm_unconfigured",
			logging.String(logging.FieldErrorHint, "set llm.api_key or DAILYBREAD_LLM_API_KEY"),
			logging.String(logging.FieldImpact, "narrative and quote generation will fail"),
		)
	}

	observers := []progress.Sink{progress.NewLogSink(logger)}
	if url := strings.TrimSpace(cfg.Events.NATSURL); url != "" {
		sink, natsErr := progress.ConnectNATS(url, cfg.Events.Subject, logger)
		if natsErr != nil {
			logging.WarnWithContext(logger, "progress fan-out disabled", "nats_unavailable",
				logging.String(logging.FieldErrorHint, "check events.nats_url"),
				logging.String(logging.FieldImpact, "progress events are only logged"),
				logging.Error(natsErr),
			)
		} else {
			observers = append(observers, sink)
			a.closers = append(a.closers, func(context.Context) error { sink.Close(); return nil })
		}
	}
	observers = append(observers, o.observers...)

	day, err := pipeline.NewDay(cfg, pipeline.Dependencies{
		Repo:       store,
		Selector:   selector,
		Text:       textsource.NewClient(textsource.Config{BaseURL: cfg.TextSource.BaseURL, APIKey: cfg.TextSource.APIKey, TimeoutSeconds: cfg.TextSource.TimeoutSeconds}),
		Narratives: generators.NewNarrativeWriter(completer, logger),
		Quotes:     generators.NewQuoteWriter(completer, logger),
		Alignment: speech.NewAlignmentClient(speech.AlignmentConfig{
			BaseURL:        cfg.Speech.AlignmentBaseURL,
			Model:          cfg.Speech.Model,
			OutputFormat:   cfg.Speech.OutputFormat,
			TimeoutSeconds: cfg.Speech.TimeoutSeconds,
		}),
		Duration: speech.NewDurationClient(speech.DurationConfig{
			BaseURL:        cfg.Speech.DurationBaseURL,
			OutputFormat:   cfg.Speech.OutputFormat,
			TimeoutSeconds: cfg.Speech.TimeoutSeconds,
		}),
		Credentials: creds,
		Uploader:    uploader,
		TextGate:    ratelimit.NewGate("text_source", cfg.TextDelay()),
		SpeechGate:  ratelimit.NewGate("speech", cfg.SpeechDelay()),
		Observers:   observers,
		Tracer:      telemetry.Tracer(),
	}, logger)
	if err != nil {
		return nil, err
	}
	a.Day = day
	a.Month = pipeline.NewMonth(day, logger, observers...)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildCredentials(ctx context.Context, cfg *config.Config) (credentials.Store, error) {
	chain := credentials.Chain{
		credentials.Env(EnvCredentialPrefix),
		credentials.Static(cfg.Credentials.Values),
	}
	if prefix := cfg.Credentials.SSMPrefix; prefix != "" {
		ssm, err := credentials.NewSSMFromConfig(ctx, cfg.Credentials.SSMRegion, prefix)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "app", "credentials", "ssm", err)
		}
		chain = append(chain, ssm)
	}
	return chain, nil
}

func buildUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Uploader, error) {
	switch cfg.Storage.Backend {
	case config.StorageLocal, "":
		local, err := storage.NewLocal(cfg.Paths.StorageDir, cfg.Storage.PublicBaseURL, logger)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "app", "storage", "local", err)
		}
		return local, nil
	case config.StorageS3:
		s3, err := storage.NewS3FromConfig(ctx, storage.S3Config{
			Bucket:        cfg.Storage.S3Bucket,
			Region:        cfg.Storage.S3Region,
			Prefix:        cfg.Storage.S3Prefix,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		}, logger)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "app", "storage", "s3", err)
		}
		return s3, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "app", "storage",
			fmt.Sprintf("unsupported backend %q", cfg.Storage.Backend), nil)
	}
}
