package search

import (
	"math"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

// Matched field tags.
const (
	FieldNameExact     = "name-exact"
	FieldNameContains  = "name-contains"
	FieldAllWordsMatch = "all-words-match"
	FieldCategoryExact = "category-exact"
	FieldDescription   = "description"
	FieldFuzzy         = "fuzzy"
)

const (
	scoreNameExact     = 200
	scoreNameContains  = 100
	scoreWordInName    = 40
	scoreWordInCat     = 20
	scoreSynonym       = 15
	scoreAllWords      = 50
	scoreCategoryExact = 80
	scoreDescription   = 10
	scoreFuzzyMax      = 30
	scoreFlag          = 10
	scoreInStock       = 5
	scoreWellStocked   = 5
	scoreFresh         = 10

	fuzzyGate      = 50
	fuzzyThreshold = 0.7
	wellStocked    = 10
	freshFor       = 30 * 24 * time.Hour
)

// A ScoredCandidate pairs a product with its relevance score.
//
// MatchedFields explain the score and never affect ranking.
type ScoredCandidate struct {
	Product       domain.Product
	Score         int
	MatchedFields []string
}

type query struct {
	text  string
	words []string
}

func newQuery(q string) query {
	text := strings.TrimSpace(lower(q))
	return query{text: text, words: queryWords(text)}
}

// Score computes the relevance of p for the free-text query q
// evaluated at the instant now.
func Score(q string, p domain.Product, now time.Time) ScoredCandidate {
	return newQuery(q).score(p, now)
}

func (q query) score(p domain.Product, now time.Time) ScoredCandidate {
	var (
		score   int
		matched []string
	)

	name := lower(p.Name)
	category := lower(p.Category)
	description := lower(p.Description)

	if name == q.text {
		score += scoreNameExact
		matched = append(matched, FieldNameExact)
	} else if strings.Contains(name, q.text) {
		score += scoreNameContains
		matched = append(matched, FieldNameContains)
	}

	var wordsMatched int
	for _, w := range q.words {
		if q.scoreWord(w, name, category, &score) {
			wordsMatched++
		}
	}

	if len(q.words) > 1 && wordsMatched == len(q.words) {
		score += scoreAllWords
		matched = append(matched, FieldAllWordsMatch)
	}

	if category == q.text {
		score += scoreCategoryExact
		matched = append(matched, FieldCategoryExact)
	}

	if strings.Contains(description, q.text) {
		score += scoreDescription
		matched = append(matched, FieldDescription)
	}

	if score < fuzzyGate {
		if sim := Similarity(q.text, name); sim > fuzzyThreshold {
			score += int(math.Round(sim * scoreFuzzyMax))
			matched = append(matched, FieldFuzzy)
		}
	}

	score += boosts(p, now)

	return ScoredCandidate{Product: p, Score: score, MatchedFields: matched}
}

func (q query) scoreWord(w, name, category string, score *int) bool {
	var hit bool
	if strings.Contains(name, w) {
		*score += scoreWordInName
		hit = true
	}
	if strings.Contains(category, w) {
		*score += scoreWordInCat
		hit = true
	}
	for _, g := range synonyms {
		if !g.covers(w) {
			continue
		}
		if strings.Contains(name, g.term) || strings.Contains(category, g.term) {
			*score += scoreSynonym
			hit = true
		}
	}
	return hit
}

// boosts are the popularity, stock and freshness terms.
func boosts(p domain.Product, now time.Time) (score int) {
	if p.Featured {
		score += scoreFlag
	}
	if p.BestSeller {
		score += scoreFlag
	}

	stock := p.TotalInventory()
	if stock > 0 {
		score += scoreInStock
	}
	if stock > wellStocked {
		score += scoreWellStocked
	}

	if now.Sub(p.CreatedAt) < freshFor {
		score += scoreFresh
	}
	return score
}
