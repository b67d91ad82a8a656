// Package services defines shared utilities consumed by the generation
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, content dates, modes, translation
//     codes, and step names for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (configuration, external, validation) without string matching.
//
// Use these helpers when wiring new pipeline steps so operational behaviour
// (error handling, observability) stays uniform across collaborators.
package services
