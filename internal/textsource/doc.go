// Package textsource fetches verse text for a reference in a given
// translation code.
//
// FetchText returns an empty string with a nil error when the source has no
// text for the code (HTTP 404, or an empty body); callers log that as a skip
// rather than a failure. Granularity "short" returns the verse alone, "long"
// returns the verse with its surrounding passage for narration.
package textsource
