package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.OrdersReader = (*OrdersRepository)(nil)

type OrdersRepository struct {
	sqldb sqldb
}

func NewOrdersRepository(sqldb sqldb) OrdersRepository {
	return OrdersRepository{sqldb}
}

// OrdersWithProduct returns every order with a line item of productID,
// oldest first, with all of their line items.
func (r OrdersRepository) OrdersWithProduct(
	ctx context.Context, productID string,
) ([]domain.Order, error) {
	const op = "OrdersRepository.OrdersWithProduct"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT o.id, o.username, o.created_at, oi.product_id, oi.quantity
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE o.id IN (SELECT order_id FROM order_items WHERE product_id = $1)
		ORDER BY o.created_at ASC, o.id ASC, oi.id ASC`

	rows, err := r.sqldb.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var (
			id, username string
			createdAt    time.Time
			item         domain.OrderItem
		)
		err := rows.Scan(&id, &username, &createdAt, &item.ProductID, &item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if n := len(orders); n == 0 || orders[n-1].ID != id {
			orders = append(orders, domain.Order{
				ID: id, Username: username, CreatedAt: createdAt,
			})
		}
		last := &orders[len(orders)-1]
		last.Items = append(last.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}
