package search

import (
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/niksmo/storefront/internal/core/domain"
)

const minSuggestLen = 2

// Suggestions yields product names, categories and materials containing
// partial, case-insensitively. Each value is yielded once, in order of
// first occurrence. The sequence makes one pass over the catalog.
func Suggestions(catalog []domain.Product, partial string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if utf8.RuneCountInString(partial) < minSuggestLen {
			return
		}
		q := lower(partial)
		seen := make(map[string]struct{})

		emit := func(v string) bool {
			if v == "" || !strings.Contains(lower(v), q) {
				return true
			}
			if _, ok := seen[v]; ok {
				return true
			}
			seen[v] = struct{}{}
			return yield(v)
		}

		for _, p := range catalog {
			if !emit(p.Name) || !emit(p.Category) || !emit(p.Materials) {
				return
			}
		}
	}
}

// Suggest collects at most limit values of [Suggestions].
func Suggest(catalog []domain.Product, partial string, limit int) []string {
	out := []string{}
	if limit <= 0 {
		return out
	}
	for v := range Suggestions(catalog, partial) {
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
