package textutil

import "strings"

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Match is the history entry closest to a candidate.
type Match struct {
	Text  string
	Score float64
}

// MostSimilar scores candidate against every history entry using IDF weights
// drawn from history and returns the closest one. An exact match after
// whitespace and case folding always scores 1.
func MostSimilar(candidate string, history []string) Match {
	folded := foldSpace(candidate)
	corpus := NewCorpus()
	prints := make([]*Fingerprint, len(history))
	for i, text := range history {
		prints[i] = NewFingerprint(text)
		corpus.Add(prints[i])
	}
	idf := corpus.IDF()
	target := NewFingerprint(candidate).WithIDF(idf)

	var best Match
	for i, text := range history {
		if folded != "" && foldSpace(text) == folded {
			return Match{Text: text, Score: 1}
		}
		score := CosineSimilarity(target, prints[i].WithIDF(idf))
		if score > best.Score {
			best = Match{Text: text, Score: score}
		}
	}
	return best
}

func foldSpace(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// SanitizeToken converts a string to a lowercase token safe for object keys.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
