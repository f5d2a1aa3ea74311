package storage

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ActivityReader = (*ActivityRepository)(nil)

type ActivityRepository struct {
	sqldb sqldb
}

func NewActivityRepository(sqldb sqldb) ActivityRepository {
	return ActivityRepository{sqldb}
}

// WishlistItems returns the wishlisted product IDs in the order they were added.
func (r ActivityRepository) WishlistItems(
	ctx context.Context, username string,
) ([]string, error) {
	const op = "ActivityRepository.WishlistItems"

	query := `
		SELECT product_id
		FROM wishlist_items
		WHERE username = $1
		ORDER BY created_at ASC, product_id ASC`

	ids, err := r.queryIDs(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// PurchasedProducts returns the distinct purchased product IDs
// in order of first purchase.
func (r ActivityRepository) PurchasedProducts(
	ctx context.Context, username string,
) ([]string, error) {
	const op = "ActivityRepository.PurchasedProducts"

	query := `
		SELECT oi.product_id
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.username = $1
		GROUP BY oi.product_id
		ORDER BY MIN(o.created_at) ASC, oi.product_id ASC`

	ids, err := r.queryIDs(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

func (r ActivityRepository) queryIDs(
	ctx context.Context, query string, args ...any,
) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := r.sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
