package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateLambda(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if len(c.Pipeline.Translations) == 0 {
		return errors.New("pipeline.translations must include at least one translation code")
	}
	primaryListed := false
	for _, t := range c.Pipeline.Translations {
		if t.Code == c.Pipeline.PrimaryCode {
			primaryListed = true
			break
		}
	}
	if !primaryListed {
		return fmt.Errorf("pipeline.primary_code %q must appear in pipeline.translations", c.Pipeline.PrimaryCode)
	}
	if c.Subtitles.MaxCueChars < 8 {
		return errors.New("subtitles.max_cue_chars must be at least 8")
	}
	if c.Subtitles.MaxCueMS < 500 {
		return errors.New("subtitles.max_cue_ms must be at least 500")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageLocal:
		return nil
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return errors.New("storage.s3_bucket must be set when storage.backend is s3 (or set DAILYBREAD_S3_BUCKET)")
		}
		return nil
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (want local or s3)", c.Storage.Backend)
	}
}

func (c *Config) validateLambda() error {
	for _, mode := range c.Lambda.Modes {
		if !slices.Contains([]string{"devotional", "affirmation"}, mode) {
			return fmt.Errorf("lambda.modes: unsupported mode %q", mode)
		}
	}
	if c.Lambda.DayOffset < 0 || c.Lambda.DayOffset > 31 {
		return errors.New("lambda.day_offset must be between 0 and 31")
	}
	return nil
}
