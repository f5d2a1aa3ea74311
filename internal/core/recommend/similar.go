package recommend

import (
	"slices"

	"github.com/niksmo/storefront/internal/core/domain"
)

const (
	similarCategory  = 50
	similarGender    = 30
	similarPriceBand = 20
	similarColor     = 10
	similarMaterials = 15

	priceBand = 0.3
)

// Similar ranks the catalog against ref and returns the top limit
// products, never ref itself. There is no minimum score.
func Similar(
	ref domain.Product, catalog []domain.Product, limit int,
) []domain.Product {
	refColors := ref.ColorNames()

	var items []scored[int]
	for _, p := range catalog {
		if p.ID == ref.ID {
			continue
		}
		items = append(items, scored[int]{p, similarity(ref, refColors, p)})
	}
	return top(items, limit)
}

func similarity(ref domain.Product, refColors []string, p domain.Product) int {
	var score int

	if p.Category == ref.Category {
		score += similarCategory
	}
	if p.Gender == ref.Gender {
		score += similarGender
	}
	if inPriceBand(ref.Price, p.Price) {
		score += similarPriceBand
	}

	colors := p.ColorNames()
	for _, c := range refColors {
		if slices.Contains(colors, c) {
			score += similarColor
		}
	}

	if p.Materials != "" && p.Materials == ref.Materials {
		score += similarMaterials
	}
	return score
}

// inPriceBand reports whether price is within 30% of ref.
// A zero reference price has no band.
func inPriceBand(ref, price int64) bool {
	if ref <= 0 {
		return false
	}
	diff := price - ref
	if diff < 0 {
		diff = -diff
	}
	return float64(diff)/float64(ref) < priceBand
}
