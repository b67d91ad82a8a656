// Package content persists daily content records, their per-code translation
// rows, and the used-reference ledger in SQLite.
//
// Writes are additive: update statements only fill columns that are still
// NULL or empty, so a re-run of the pipeline can never regress or overwrite a
// populated field. Uniqueness is enforced by the schema: one record per
// (date, mode, language), one translation per (record, code), and one ledger
// entry per reference key.
package content
