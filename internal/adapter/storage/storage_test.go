package storage

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	productCols = []string{
		"id", "name", "description", "category", "materials", "gender",
		"price", "compare_at_price", "colors", "sizes", "featured", "best_seller", "created_at",
	}
	variantCols = []string{"id", "product_id", "color", "size", "inventory", "price", "sku"}

	createdAt = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	errDB     = errors.New("connection reset")
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func turtleneckRow(rows *sqlmock.Rows) *sqlmock.Rows {
	return rows.AddRow(
		"p-turtleneck", "Cashmere Turtleneck", "Soft knit.", "Knitwear",
		"100% Cashmere", "WOMEN", int64(29500), int64(0),
		[]byte(`[{"name":"Ivory","hex":"#FFFFF0"}]`), []byte(`["S","M"]`),
		true, true, createdAt,
	)
}

func blazerRow(rows *sqlmock.Rows) *sqlmock.Rows {
	return rows.AddRow(
		"p-blazer", "Wool Blazer", "", "Outerwear",
		nil, "MEN", int64(59500), int64(65000),
		[]byte(`[]`), []byte(`["M","L"]`),
		false, false, createdAt.Add(-time.Hour),
	)
}

func TestProductsRepositoryListProducts(t *testing.T) {
	t.Run("FullCatalog", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM products ORDER BY created_at DESC, id ASC")).
			WillReturnRows(blazerRow(turtleneckRow(sqlmock.NewRows(productCols))))
		mock.ExpectQuery(regexp.QuoteMeta("FROM product_variants WHERE product_id IN ($1, $2)")).
			WithArgs("p-turtleneck", "p-blazer").
			WillReturnRows(sqlmock.NewRows(variantCols).
				AddRow("v-1", "p-turtleneck", "Ivory", "S", int64(3), nil, "TN-IV-S").
				AddRow("v-2", "p-turtleneck", "Ivory", "M", int64(9), int64(31000), "TN-IV-M").
				AddRow("v-3", "p-blazer", "Navy", "L", int64(0), nil, "BZ-NV-L"))

		ps, err := NewProductsRepository(db).ListProducts(t.Context(), domain.ProductQuery{})
		require.NoError(t, err)
		require.Len(t, ps, 2)

		tn := ps[0]
		assert.Equal(t, "p-turtleneck", tn.ID)
		assert.Equal(t, "100% Cashmere", tn.Materials)
		assert.Equal(t, domain.GenderWomen, tn.Gender)
		assert.Equal(t, []domain.Color{{Name: "Ivory", Hex: "#FFFFF0"}}, tn.Colors)
		assert.Equal(t, []string{"S", "M"}, tn.Sizes)
		assert.True(t, tn.Featured)
		assert.True(t, tn.CreatedAt.Equal(createdAt))
		require.Len(t, tn.Variants, 2)
		assert.Nil(t, tn.Variants[0].Price)
		require.NotNil(t, tn.Variants[1].Price)
		assert.Equal(t, int64(31000), *tn.Variants[1].Price)
		assert.Equal(t, 12, tn.TotalInventory())

		bz := ps[1]
		assert.Empty(t, bz.Materials)
		assert.Empty(t, bz.Colors)
		assert.Equal(t, int64(65000), bz.CompareAtPrice)
		require.Len(t, bz.Variants, 1)
		assert.Equal(t, "BZ-NV-L", bz.Variants[0].SKU)
	})

	t.Run("Filters", func(t *testing.T) {
		db, mock := newMockDB(t)
		featured := true

		mock.ExpectQuery(regexp.QuoteMeta(
			"FROM products WHERE gender = $1 AND category = $2 AND featured = $3 AND id IN ($4, $5) ORDER BY",
		)).
			WithArgs("WOMEN", "Knitwear", true, "a", "b").
			WillReturnRows(sqlmock.NewRows(productCols))

		ps, err := NewProductsRepository(db).ListProducts(t.Context(), domain.ProductQuery{
			Gender:   domain.GenderWomen,
			Category: "Knitwear",
			Featured: &featured,
			IDs:      []string{"a", "b"},
		})
		require.NoError(t, err)
		assert.NotNil(t, ps)
		assert.Empty(t, ps)
	})

	t.Run("EmptyIDs", func(t *testing.T) {
		db, _ := newMockDB(t)
		ps, err := NewProductsRepository(db).ListProducts(
			t.Context(), domain.ProductQuery{IDs: []string{}},
		)
		require.NoError(t, err)
		assert.Empty(t, ps)
	})

	t.Run("QueryFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM products").WillReturnError(errDB)

		_, err := NewProductsRepository(db).ListProducts(t.Context(), domain.ProductQuery{})
		require.ErrorIs(t, err, errDB)
	})

	t.Run("BadColors", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM products").WillReturnRows(
			sqlmock.NewRows(productCols).AddRow(
				"p-x", "X", "", "C", nil, "MEN", int64(1), int64(0),
				[]byte(`{`), []byte(`[]`), false, false, createdAt,
			),
		)

		_, err := NewProductsRepository(db).ListProducts(t.Context(), domain.ProductQuery{})
		require.Error(t, err)
	})
}

func TestProductsRepositoryReadProduct(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
			WithArgs("p-turtleneck").
			WillReturnRows(turtleneckRow(sqlmock.NewRows(productCols)))
		mock.ExpectQuery(regexp.QuoteMeta("FROM product_variants WHERE product_id IN ($1)")).
			WithArgs("p-turtleneck").
			WillReturnRows(sqlmock.NewRows(variantCols))

		p, err := NewProductsRepository(db).ReadProduct(t.Context(), "p-turtleneck")
		require.NoError(t, err)
		assert.Equal(t, "Cashmere Turtleneck", p.Name)
		assert.Empty(t, p.Variants)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(productCols))

		_, err := NewProductsRepository(db).ReadProduct(t.Context(), "nope")
		require.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, port.ErrNotFound)
	})

	t.Run("VariantsFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
			WithArgs("p-turtleneck").
			WillReturnRows(turtleneckRow(sqlmock.NewRows(productCols)))
		mock.ExpectQuery("FROM product_variants").WillReturnError(errDB)

		_, err := NewProductsRepository(db).ReadProduct(t.Context(), "p-turtleneck")
		require.ErrorIs(t, err, errDB)
	})
}

func TestOrdersRepositoryOrdersWithProduct(t *testing.T) {
	db, mock := newMockDB(t)
	cols := []string{"id", "username", "created_at", "product_id", "quantity"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id IN (SELECT order_id FROM order_items WHERE product_id = $1)")).
		WithArgs("p-dress").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("o-1", "alice", createdAt, "p-dress", int64(1)).
			AddRow("o-1", "alice", createdAt, "p-blazer", int64(2)).
			AddRow("o-2", "bob", createdAt.Add(time.Hour), "p-dress", int64(1)))

	orders, err := NewOrdersRepository(db).OrdersWithProduct(t.Context(), "p-dress")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "o-1", orders[0].ID)
	assert.Equal(t, "alice", orders[0].Username)
	assert.Equal(t, []domain.OrderItem{
		{ProductID: "p-dress", Quantity: 1},
		{ProductID: "p-blazer", Quantity: 2},
	}, orders[0].Items)
	assert.Equal(t, "o-2", orders[1].ID)
	assert.Len(t, orders[1].Items, 1)
}

func TestActivityRepository(t *testing.T) {
	t.Run("WishlistItems", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM wishlist_items WHERE username = $1")).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"product_id"}).
				AddRow("p-dress").AddRow("p-blazer"))

		ids, err := NewActivityRepository(db).WishlistItems(t.Context(), "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"p-dress", "p-blazer"}, ids)
	})

	t.Run("PurchasedProducts", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE o.username = $1 GROUP BY oi.product_id")).
			WithArgs("bob").
			WillReturnRows(sqlmock.NewRows([]string{"product_id"}))

		ids, err := NewActivityRepository(db).PurchasedProducts(t.Context(), "bob")
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	})

	t.Run("Failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM wishlist_items").WillReturnError(errDB)

		_, err := NewActivityRepository(db).WishlistItems(t.Context(), "alice")
		require.ErrorIs(t, err, errDB)
	})
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", placeholders(1, 1))
	assert.Equal(t, "$3, $4, $5", placeholders(3, 3))
	assert.Empty(t, placeholders(1, 0))
}
