package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"dailybread/internal/app"
	"dailybread/internal/config"
	"dailybread/internal/content"
	"dailybread/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// withStore opens the content database read-write without wiring providers.
func (c *commandContext) withStore(fn func(*content.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := content.Open(cfg)
	if err != nil {
		return fmt.Errorf("open content store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// withApp takes the generation lock, wires the pipeline and runs fn.
func (c *commandContext) withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire generation lock: %w", err)
	}
	if !ok {
		return errors.New("another dailybread generation is already running (lock " + cfg.LockPath() + ")")
	}
	defer func() { _ = lock.Unlock() }()

	logger, err := c.logger()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(context.Background()); closeErr != nil {
			logger.Warn("shutdown incomplete", logging.Error(closeErr))
		}
	}()
	return fn(a)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// parseModes accepts devotional, affirmation or all.
func parseModes(value string) ([]content.Mode, error) {
	if strings.EqualFold(strings.TrimSpace(value), "all") {
		return content.Modes(), nil
	}
	mode, err := content.ParseMode(value)
	if err != nil {
		return nil, err
	}
	return []content.Mode{mode}, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
