// Package subtitles groups canonical word timings into display cues and
// renders them as SRT documents.
//
// Build is provider-agnostic: it only sees timing.WordTiming values. Cues are
// contiguous, ordered, non-overlapping, and jointly cover every input word
// exactly once. Parse and Validate read a rendered document back so callers
// can check it before upload.
package subtitles
