package textutil

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Fingerprint represents a term-frequency vector for text similarity comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return newWeighted(counts)
}

func newWeighted(weights map[string]float64) *Fingerprint {
	var norm float64
	for _, w := range weights {
		norm += w * w
	}
	if norm == 0 {
		return nil
	}
	return &Fingerprint{tokens: weights, norm: math.Sqrt(norm)}
}

// Tokenize lowercases text and splits it on anything that is not a letter or
// digit. Tokens shorter than three runes are dropped.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, token := range fields {
		if utf8.RuneCountInString(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// WithIDF returns a new Fingerprint with each term weighted by idf.
// Terms absent from the map keep their count.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.tokens))
	for token, count := range f.tokens {
		w := count
		if idfVal, ok := idf[token]; ok {
			w *= idfVal
		}
		if w == 0 {
			continue
		}
		weighted[token] = w
	}
	return newWeighted(weighted)
}

// Corpus collects document frequency statistics for IDF computation.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add registers a fingerprint's unique terms in the corpus.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil || fp == nil {
		return
	}
	c.docCount++
	for token := range fp.tokens {
		c.docFreq[token]++
	}
}

// IDF computes smoothed inverse document frequency weights:
// log((N+1)/(1+df)) + 1, so terms shared by every document still count.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docCount)
	for term, df := range c.docFreq {
		idf[term] = math.Log((n+1)/(1+float64(df))) + 1
	}
	return idf
}
