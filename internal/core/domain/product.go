package domain

import "time"

type Gender string

const (
	GenderMen    Gender = "MEN"
	GenderWomen  Gender = "WOMEN"
	GenderUnisex Gender = "UNISEX"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderUnisex:
		return true
	}
	return false
}

type (
	// A Product is a catalog item. Money fields are minor currency units.
	Product struct {
		ID             string
		Name           string
		Description    string
		Category       string
		Materials      string
		Gender         Gender
		Price          int64
		CompareAtPrice int64
		Colors         []Color
		Sizes          []string
		Featured       bool
		BestSeller     bool
		CreatedAt      time.Time
		Variants       []Variant
	}

	Color struct {
		Name string
		Hex  string
	}

	// A Variant fixes one color and one size of the product.
	Variant struct {
		ID        string
		ProductID string
		Color     string
		Size      string
		Inventory int
		Price     *int64
		SKU       string
	}
)

// TotalInventory sums inventory across all variants.
func (p Product) TotalInventory() int {
	var total int
	for _, v := range p.Variants {
		total += v.Inventory
	}
	return total
}

// VariantPrice returns the variant override when present, the base price otherwise.
func (p Product) VariantPrice(v Variant) int64 {
	if v.Price != nil {
		return *v.Price
	}
	return p.Price
}

// ColorNames returns the color names in their stored order.
func (p Product) ColorNames() []string {
	names := make([]string, len(p.Colors))
	for i, c := range p.Colors {
		names[i] = c.Name
	}
	return names
}

// A ProductQuery selects products by exact field values.
// Zero fields are not applied.
type ProductQuery struct {
	Gender     Gender
	Category   string
	Featured   *bool
	BestSeller *bool
	IDs        []string
}

// SearchOptions describe a catalog search: free text plus structural filters.
//
// MinPrice and MaxPrice are major currency units.
type SearchOptions struct {
	Query      string
	Category   string
	Gender     Gender
	MinPrice   *float64
	MaxPrice   *float64
	Colors     []string
	Sizes      []string
	Featured   *bool
	BestSeller *bool
}
