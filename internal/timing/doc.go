// Package timing converts provider-native speech timing data into one
// canonical word-timing sequence.
//
// Speech providers report timing in one of two shapes: a per-character
// alignment stream (CharacterAlignment) or a per-word duration list
// (WordDurations). Normalize accepts either and returns []WordTiming with
// non-decreasing start times and no negative durations, which is the single
// input the subtitle cue builder consumes.
package timing
