package port

import (
	"context"
	"errors"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Driving ports.

type ProductSearcher interface {
	Search(
		ctx context.Context, username string, opts domain.SearchOptions,
	) ([]domain.Product, error)
	Suggest(ctx context.Context, partial string, limit int) ([]string, error)
}

type ProductRecommender interface {
	Similar(ctx context.Context, productID string, limit int) ([]domain.Product, error)
	BoughtTogether(ctx context.Context, productID string, limit int) ([]domain.Product, error)
	Recommend(ctx context.Context, req domain.RecommendRequest) ([]domain.Product, error)
}

type ViewTracker interface {
	TrackView(ctx context.Context, username, productID string) error
}

// Driven ports.

type ProductsReader interface {
	ListProducts(context.Context, domain.ProductQuery) ([]domain.Product, error)
	ReadProduct(ctx context.Context, id string) (domain.Product, error)
}

type OrdersReader interface {
	OrdersWithProduct(ctx context.Context, productID string) ([]domain.Order, error)
}

type ActivityReader interface {
	WishlistItems(ctx context.Context, username string) ([]string, error)
	PurchasedProducts(ctx context.Context, username string) ([]string, error)
}

type ViewedProductsReader interface {
	ViewedProducts(ctx context.Context, username string) ([]string, error)
}

type ProductViewsProducer interface {
	ProduceView(context.Context, domain.ProductView) error
}

type SearchQueriesProducer interface {
	ProduceSearchQuery(context.Context, domain.SearchQuery) error
}

type ActivityProcessor interface {
	runnerContextWg
	closer
}

// ErrNotFound is returned by readers when the requested entity does not exist.
var ErrNotFound = errors.New("not found")
