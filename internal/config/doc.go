// Package config loads, normalizes, and validates dailybread configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and overlays environment variables for
// secrets and deployment knobs such as DAILYBREAD_LLM_API_KEY. The Config type
// centralizes every setting the generation pipeline, CLI, and Lambda entry
// point need: translation codes, provider endpoints, pacing delays, storage
// backend, and event fan-out.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical translation codes, and clear validation errors.
package config
