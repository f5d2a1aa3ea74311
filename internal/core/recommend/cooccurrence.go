package recommend

import (
	"cmp"
	"slices"

	"github.com/niksmo/storefront/internal/core/domain"
)

type tally struct {
	productID string
	count     int
}

// FrequentlyBoughtWith returns the catalog products most often ordered
// together with productID, most frequent first. Equal counts keep the
// order in which the products were first met in orders.
func FrequentlyBoughtWith(
	productID string,
	orders []domain.Order,
	catalog []domain.Product,
	limit int,
) []domain.Product {
	counts := coPurchases(productID, orders)
	if len(counts) == 0 || limit <= 0 {
		return []domain.Product{}
	}

	slices.SortStableFunc(counts, func(a, b tally) int {
		return cmp.Compare(b.count, a.count)
	})
	counts = counts[:min(limit, len(counts))]

	byID := make(map[string]domain.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	out := make([]domain.Product, 0, len(counts))
	for _, c := range counts {
		if p, ok := byID[c.productID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// coPurchases counts line items of other products across the orders
// containing productID, in order of first encounter.
func coPurchases(productID string, orders []domain.Order) []tally {
	var counts []tally
	index := make(map[string]int)

	for _, o := range orders {
		if !o.Contains(productID) {
			continue
		}
		for _, it := range o.Items {
			if it.ProductID == productID {
				continue
			}
			i, ok := index[it.ProductID]
			if !ok {
				i = len(counts)
				index[it.ProductID] = i
				counts = append(counts, tally{productID: it.ProductID})
			}
			counts[i].count++
		}
	}
	return counts
}
