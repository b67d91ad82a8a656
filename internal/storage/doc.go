// Package storage uploads generated audio and subtitle documents and returns
// their public URLs.
//
// Object keys are deterministic, <category>/<date>/<code>.<ext>, so a re-run
// that re-uploads after a crash overwrites the same object rather than
// leaving orphans. Two backends are provided: Local (a directory tree, used
// for development and tests) and S3.
package storage
