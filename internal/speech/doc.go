// Package speech provides the two text-to-speech adapters narration uses.
//
// Both implement Synthesizer and return audio bytes plus provider-native
// timing:
//
//   - AlignmentClient returns a per-character alignment (characters with start
//     and duration) covering the whole input text.
//   - DurationClient returns a per-word duration list with implied sequential
//     starts.
//
// Callers normalize Result.Timing with timing.Normalize. Which adapter serves
// a language is the caller's policy; the adapters know nothing about
// languages beyond passing text through.
package speech
