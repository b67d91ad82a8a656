// Package textutil compares short texts and builds storage-safe tokens.
//
// Quote generation uses fingerprints to reject candidates that read too much
// like recent quotes. Fingerprints are term-frequency vectors over lowercase
// letter/digit runs of three or more runes; an optional IDF weighting built
// from the comparison history keeps common words from dominating the score.
package textutil
