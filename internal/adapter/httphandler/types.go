package httphandler

import (
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	Product struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		Description    string    `json:"description"`
		Category       string    `json:"category"`
		Materials      string    `json:"materials,omitempty"`
		Gender         string    `json:"gender"`
		Price          int64     `json:"price"`
		CompareAtPrice int64     `json:"compare_at_price,omitempty"`
		Colors         []Color   `json:"colors"`
		Sizes          []string  `json:"sizes"`
		Featured       bool      `json:"featured"`
		BestSeller     bool      `json:"best_seller"`
		Inventory      int       `json:"inventory"`
		CreatedAt      time.Time `json:"created_at"`
		Variants       []Variant `json:"variants"`
	}

	Color struct {
		Name string `json:"name"`
		Hex  string `json:"hex"`
	}

	Variant struct {
		ID        string `json:"id"`
		Color     string `json:"color"`
		Size      string `json:"size"`
		Inventory int    `json:"inventory"`
		Price     int64  `json:"price"`
		SKU       string `json:"sku"`
	}
)

type ProductsResponse struct {
	Count    int       `json:"count"`
	Products []Product `json:"products"`
}

type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

type ViewRequest struct {
	Username string `json:"username"`
}

func fromDomain(ps []domain.Product) ProductsResponse {
	res := ProductsResponse{
		Count:    len(ps),
		Products: make([]Product, len(ps)),
	}
	for i, p := range ps {
		res.Products[i] = productFromDomain(p)
	}
	return res
}

func productFromDomain(p domain.Product) Product {
	dto := Product{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Category:       p.Category,
		Materials:      p.Materials,
		Gender:         string(p.Gender),
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		Colors:         make([]Color, len(p.Colors)),
		Sizes:          p.Sizes,
		Featured:       p.Featured,
		BestSeller:     p.BestSeller,
		Inventory:      p.TotalInventory(),
		CreatedAt:      p.CreatedAt,
		Variants:       make([]Variant, len(p.Variants)),
	}
	if dto.Sizes == nil {
		dto.Sizes = []string{}
	}

	for i, c := range p.Colors {
		dto.Colors[i] = Color{Name: c.Name, Hex: c.Hex}
	}

	for i, v := range p.Variants {
		dto.Variants[i] = Variant{
			ID:        v.ID,
			Color:     v.Color,
			Size:      v.Size,
			Inventory: v.Inventory,
			Price:     p.VariantPrice(v),
			SKU:       v.SKU,
		}
	}
	return dto
}
