package recommend

import (
	"math"
	"slices"

	"github.com/niksmo/storefront/internal/core/domain"
)

const (
	personalCategory = 40
	personalColor    = 15
	personalGender   = 20
	personalPriceMax = 20.0
	personalFlag     = 5
	personalWishlist = 25
)

// Personalized ranks the catalog against a user's activity profile.
//
// Viewed products and excludeID are left out of the candidates unless that
// leaves nothing, in which case only excludeID is left out.
func Personalized(
	catalog []domain.Product,
	activity domain.UserActivity,
	excludeID string,
	limit int,
) []domain.Product {
	viewed := newIDSet(activity.ViewedProducts)

	candidates := make([]domain.Product, 0, len(catalog))
	for _, p := range catalog {
		if p.ID != excludeID && !viewed.has(p.ID) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		for _, p := range catalog {
			if p.ID != excludeID {
				candidates = append(candidates, p)
			}
		}
	}

	prof := newProfile(catalog, activity)

	items := make([]scored[float64], len(candidates))
	for i, p := range candidates {
		items[i] = scored[float64]{p, prof.score(p)}
	}
	return top(items, limit)
}

// profile holds the aggregates derived once per call.
type profile struct {
	activity           domain.UserActivity
	gender             domain.Gender
	meanPrice          float64
	hasPrice           bool
	wishlistCategories []string
}

func newProfile(catalog []domain.Product, a domain.UserActivity) profile {
	byID := make(map[string]domain.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	prof := profile{activity: a}

	viewed := knownProducts(byID, a.ViewedProducts)
	prof.gender = dominantGender(viewed)

	if len(viewed) > 0 {
		var sum float64
		for _, p := range viewed {
			sum += float64(p.Price)
		}
		prof.meanPrice = sum / float64(len(viewed))
		prof.hasPrice = prof.meanPrice > 0
	}

	for _, p := range knownProducts(byID, a.WishlistItems) {
		prof.wishlistCategories = append(prof.wishlistCategories, p.Category)
	}
	return prof
}

func (prof profile) score(p domain.Product) float64 {
	var score float64

	if slices.Contains(prof.activity.Categories, p.Category) {
		score += personalCategory
	}

	for _, c := range p.Colors {
		if slices.Contains(prof.activity.Colors, c.Name) {
			score += personalColor
		}
	}

	if prof.gender != "" && p.Gender == prof.gender {
		score += personalGender
	}

	if prof.hasPrice {
		diff := math.Abs(float64(p.Price) - prof.meanPrice)
		score += math.Max(0, personalPriceMax-diff/prof.meanPrice*personalPriceMax)
	}

	if p.Featured {
		score += personalFlag
	}
	if p.BestSeller {
		score += personalFlag
	}

	if slices.Contains(prof.wishlistCategories, p.Category) {
		score += personalWishlist
	}
	return score
}

// knownProducts resolves ids against the catalog, once per id,
// in order of first appearance. Unknown ids are skipped.
func knownProducts(byID map[string]domain.Product, ids []string) []domain.Product {
	seen := make(idSet, len(ids))
	var out []domain.Product
	for _, id := range ids {
		if seen.has(id) {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// dominantGender is the majority gender of ps.
// Ties go to the gender seen first.
func dominantGender(ps []domain.Product) domain.Gender {
	counts := make(map[domain.Gender]int)
	var order []domain.Gender
	for _, p := range ps {
		if _, ok := counts[p.Gender]; !ok {
			order = append(order, p.Gender)
		}
		counts[p.Gender]++
	}

	var (
		best  domain.Gender
		bestN int
	)
	for _, g := range order {
		if counts[g] > bestN {
			best, bestN = g, counts[g]
		}
	}
	return best
}
