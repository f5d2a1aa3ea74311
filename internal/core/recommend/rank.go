// Package recommend ranks catalog products related to a product,
// a user profile or a purchase history.
//
// Every function is a pure projection of its arguments.
package recommend

import (
	"cmp"
	"slices"

	"github.com/niksmo/storefront/internal/core/domain"
)

type scored[S cmp.Ordered] struct {
	product domain.Product
	score   S
}

// top sorts by score descending, keeping input order on ties,
// and returns at most limit products.
func top[S cmp.Ordered](items []scored[S], limit int) []domain.Product {
	slices.SortStableFunc(items, func(a, b scored[S]) int {
		return cmp.Compare(b.score, a.score)
	})

	n := min(max(limit, 0), len(items))
	out := make([]domain.Product, n)
	for i := range n {
		out[i] = items[i].product
	}
	return out
}

type idSet map[string]struct{}

func newIDSet(ids []string) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}
