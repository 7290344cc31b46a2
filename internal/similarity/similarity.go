// Package similarity implements the fuzzy string matching used by the
// device registry's resolve() fallback.
package similarity

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var normalizer = cases.Lower(language.Und)

// normalize lower-cases and trims a string before comparison, using a
// Unicode-aware caser rather than strings.ToLower so multi-byte alphabets
// compare correctly.
func normalize(s string) string {
	return strings.TrimSpace(normalizer.String(s))
}

// Distance returns the Levenshtein edit distance between a and b after
// normalization.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(normalize(a), normalize(b))
}

// Similarity returns a score in [0, 1]: 1 for identical strings, 0 when
// either string is empty, and 1 - distance/max(len(a), len(b)) otherwise.
func Similarity(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	dist := levenshtein.ComputeDistance(na, nb)
	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

// Candidate is a named item considered during fuzzy matching, carrying its
// original insertion order for deterministic tie-breaking.
type Candidate struct {
	Key          string
	InsertionSeq uint64
}

// Match pairs a candidate with its similarity score.
type Match struct {
	Candidate Candidate
	Score     float64
}

// BestMatch returns the single candidate with the highest score strictly
// greater than threshold, or false if none qualifies. Ties are broken by
// earliest insertion.
func BestMatch(query string, candidates []Candidate, threshold float64) (Candidate, float64, bool) {
	matches := TopMatches(query, candidates, threshold, 0)
	if len(matches) == 0 {
		return Candidate{}, 0, false
	}
	best := matches[0]
	if best.Score <= threshold {
		return Candidate{}, 0, false
	}
	return best.Candidate, best.Score, true
}

// TopMatches returns every candidate scoring >= threshold, sorted by score
// descending, ties broken by insertion order. limit <= 0 means unbounded.
func TopMatches(query string, candidates []Candidate, threshold float64, limit int) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score := Similarity(query, c.Key)
		if score >= threshold {
			matches = append(matches, Match{Candidate: c, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Candidate.InsertionSeq < matches[j].Candidate.InsertionSeq
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
