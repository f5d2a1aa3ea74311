package domain

import "time"

// UserActivity is the profile the personalized recommender scores against.
type UserActivity struct {
	ViewedProducts    []string
	WishlistItems     []string
	PurchasedProducts []string
	Categories        []string
	Colors            []string
}

type (
	Order struct {
		ID        string
		Username  string
		CreatedAt time.Time
		Items     []OrderItem
	}

	OrderItem struct {
		ProductID string
		Quantity  int
	}
)

// Contains reports whether any line item references productID.
func (o Order) Contains(productID string) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// A ProductView is emitted each time a user opens a product page.
type ProductView struct {
	EventID   string
	Username  string
	ProductID string
	ViewedAt  time.Time
}

// A SearchQuery is emitted for every non-empty storefront search.
type SearchQuery struct {
	EventID    string
	Username   string
	Query      string
	Results    int
	SearchedAt time.Time
}

// A RecommendRequest asks for personalized recommendations.
// An empty Username is an anonymous visitor with no recorded activity.
type RecommendRequest struct {
	Username   string
	ExcludeID  string
	Categories []string
	Colors     []string
	Limit      int
}
