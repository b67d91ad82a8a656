// Package gaps decides which generation steps a content record still needs.
//
// Analyze is pure: it reads a record, its translations, and the active codes
// and returns an ordered Plan of typed steps. The day orchestrator re-runs it
// after each phase that can change the record, so a step only ever runs when
// the field it fills is empty at that moment.
package gaps
