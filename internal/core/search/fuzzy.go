package search

import (
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Similarity converts the Levenshtein distance between a and b
// into a ratio in [0, 1], where 1 means identical.
//
// Strings are compared as given; callers normalize case.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1.0
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return float64(longest-dist) / float64(longest)
}
