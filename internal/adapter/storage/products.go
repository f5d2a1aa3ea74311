package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/metrics"
)

var _ port.ProductsReader = (*ProductsRepository)(nil)

const productColumns = `
	id, name, description, category, materials, gender,
	price, compare_at_price, colors, sizes, featured, best_seller, created_at`

type colorJSON struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

// ListProducts returns the products matching q, newest first,
// with their variants.
func (r ProductsRepository) ListProducts(
	ctx context.Context, q domain.ProductQuery,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if q.IDs != nil && len(q.IDs) == 0 {
		return []domain.Product{}, nil
	}

	where, args := productConditions(q)
	query := "SELECT" + productColumns + " FROM products"
	if len(where) != 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := r.sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	ps := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.attachVariants(ctx, ps); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(where) == 0 {
		metrics.SetCatalogSize(len(ps))
	}
	return ps, nil
}

func productConditions(q domain.ProductQuery) (where []string, args []any) {
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if q.Gender != "" {
		add("gender = $%d", string(q.Gender))
	}
	if q.Category != "" {
		add("category = $%d", q.Category)
	}
	if q.Featured != nil {
		add("featured = $%d", *q.Featured)
	}
	if q.BestSeller != nil {
		add("best_seller = $%d", *q.BestSeller)
	}
	if len(q.IDs) != 0 {
		where = append(where, "id IN ("+placeholders(len(args)+1, len(q.IDs))+")")
		args = append(args, toArgs(q.IDs)...)
	}
	return where, args
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := "SELECT" + productColumns + " FROM products WHERE id = $1"

	p, err := scanProduct(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	ps := []domain.Product{p}
	if err := r.attachVariants(ctx, ps); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return ps[0], nil
}

// attachVariants loads the variants of ps with a single query.
func (r ProductsRepository) attachVariants(
	ctx context.Context, ps []domain.Product,
) error {
	if len(ps) == 0 {
		return nil
	}

	index := make(map[string]int, len(ps))
	ids := make([]string, len(ps))
	for i, p := range ps {
		index[p.ID] = i
		ids[i] = p.ID
	}

	query := `
		SELECT id, product_id, color, size, inventory, price, sku
		FROM product_variants
		WHERE product_id IN (` + placeholders(1, len(ids)) + `)
		ORDER BY product_id, id`

	rows, err := r.sqldb.QueryContext(ctx, query, toArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v     domain.Variant
			price sql.NullInt64
		)
		err := rows.Scan(
			&v.ID, &v.ProductID, &v.Color, &v.Size, &v.Inventory, &price, &v.SKU,
		)
		if err != nil {
			return err
		}
		if price.Valid {
			v.Price = &price.Int64
		}
		if i, ok := index[v.ProductID]; ok {
			ps[i].Variants = append(ps[i].Variants, v)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p         domain.Product
		materials sql.NullString
		gender    string
		colorsB   []byte
		sizesB    []byte
	)
	err := s.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &materials, &gender,
		&p.Price, &p.CompareAtPrice, &colorsB, &sizesB,
		&p.Featured, &p.BestSeller, &p.CreatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}

	p.Materials = materials.String
	p.Gender = domain.Gender(gender)

	var colors []colorJSON
	if err := json.Unmarshal(colorsB, &colors); err != nil {
		return domain.Product{}, fmt.Errorf("product %q colors: %w", p.ID, err)
	}
	for _, c := range colors {
		p.Colors = append(p.Colors, domain.Color{Name: c.Name, Hex: c.Hex})
	}

	if err := json.Unmarshal(sizesB, &p.Sizes); err != nil {
		return domain.Product{}, fmt.Errorf("product %q sizes: %w", p.ID, err)
	}
	return p, nil
}
