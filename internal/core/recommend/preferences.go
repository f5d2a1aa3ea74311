package recommend

import "github.com/niksmo/storefront/internal/core/domain"

// InferPreferences returns a copy of a whose Categories and Colors are
// extended with those of the viewed, wishlisted and purchased products.
//
// Explicit preferences come first; every value appears once.
func InferPreferences(
	catalog []domain.Product, a domain.UserActivity,
) domain.UserActivity {
	byID := make(map[string]domain.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	var categories, colors orderedSet
	categories.add(a.Categories...)
	colors.add(a.Colors...)

	for _, ids := range [][]string{a.ViewedProducts, a.WishlistItems, a.PurchasedProducts} {
		for _, p := range knownProducts(byID, ids) {
			categories.add(p.Category)
			colors.add(p.ColorNames()...)
		}
	}

	out := a
	out.Categories = categories.values
	out.Colors = colors.values
	return out
}

type orderedSet struct {
	seen   idSet
	values []string
}

func (s *orderedSet) add(vs ...string) {
	if s.seen == nil {
		s.seen = make(idSet)
	}
	for _, v := range vs {
		if v == "" || s.seen.has(v) {
			continue
		}
		s.seen[v] = struct{}{}
		s.values = append(s.values, v)
	}
}
