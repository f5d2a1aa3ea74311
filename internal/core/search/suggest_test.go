package search

import (
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	catalog := []domain.Product{
		{Name: "Silk Dress", Category: "Dresses", Materials: "Mulberry Silk"},
		{Name: "Silk Scarf", Category: "Accessories", Materials: "Mulberry Silk"},
		{Name: "Wool Blazer", Category: "Outerwear", Materials: "Virgin Wool"},
		{Name: "Slip Dress", Category: "Dresses"},
	}

	t.Run("TooShort", func(t *testing.T) {
		assert.Empty(t, Suggest(catalog, "s", 5))
		assert.Empty(t, Suggest(catalog, "", 5))
	})

	t.Run("FirstOccurrenceOrder", func(t *testing.T) {
		got := Suggest(catalog, "SILK", 10)
		assert.Equal(t, []string{"Silk Dress", "Mulberry Silk", "Silk Scarf"}, got)
	})

	t.Run("CategoriesDeduplicated", func(t *testing.T) {
		got := Suggest(catalog, "dress", 10)
		assert.Equal(t, []string{"Silk Dress", "Dresses", "Slip Dress"}, got)
	})

	t.Run("Materials", func(t *testing.T) {
		got := Suggest(catalog, "virgin", 10)
		assert.Equal(t, []string{"Virgin Wool"}, got)
	})

	t.Run("Limit", func(t *testing.T) {
		assert.Equal(t, []string{"Silk Dress", "Mulberry Silk"}, Suggest(catalog, "silk", 2))
		assert.Empty(t, Suggest(catalog, "silk", 0))
	})

	t.Run("EmptyCatalog", func(t *testing.T) {
		assert.Empty(t, Suggest(nil, "silk", 5))
	})

	t.Run("LazySequenceStopsEarly", func(t *testing.T) {
		var got []string
		for v := range Suggestions(catalog, "silk") {
			got = append(got, v)
			break
		}
		assert.Equal(t, []string{"Silk Dress"}, got)
	})
}
