// Package pipeline drives daily content generation.
//
// Day fills one (date, mode) record from whatever state it is in: it asks
// the gaps analyzer what is missing, performs only those steps, and
// re-analyzes after every phase so a crashed or partial run resumes where it
// stopped. Month runs Day once per calendar date in ascending order and keeps
// going past failed days.
//
// Every step runs sequentially. Provider pacing is enforced by the fixed
// delay gates in internal/ratelimit; narration failures are isolated per
// translation code and reported as progress errors, while any other failure
// aborts the day and is returned in the day result.
package pipeline
