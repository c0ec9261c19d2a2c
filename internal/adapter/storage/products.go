package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/port"
)

var (
	_ port.CatalogLoader   = (*ProductsRepository)(nil)
	_ port.ProductsStorage = (*ProductsRepository)(nil)
)

const (
	productColumns = `
		product_id, name, brand, price, original_price, discount,
		rating, reviews, stock, category, badge, image, featured, position`

	selectProductsQuery = `SELECT ` + productColumns + `
		FROM products
		ORDER BY position ASC;`

	deleteProductsQuery = `DELETE FROM products;`

	insertProductQuery = `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`
)

// ProductsRepository keeps the catalog in the products table. Catalog order
// is preserved in the position column.
type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

// StoreProducts replaces the stored catalog with vs in one transaction.
func (r ProductsRepository) StoreProducts(
	ctx context.Context, vs []domain.Product,
) (storeErr error) {
	const op = "ProductsRepository.StoreProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if storeErr == nil {
			if err := tx.Commit(); err != nil {
				storeErr = fmt.Errorf("%s: failed to commit %w", op, err)
			}
			return
		}

		err := tx.Rollback()
		if err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, deleteProductsQuery); err != nil {
		return fmt.Errorf("%s: failed to clear: %w", op, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertProductQuery)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for i, v := range vs {
		_, err := stmt.ExecContext(ctx,
			v.ID, v.Name, v.Brand, v.Price, v.OriginalPrice, v.Discount,
			v.Rating, v.Reviews, v.Stock, v.Category, v.Badge, v.Image,
			v.Featured, i,
		)
		if err != nil {
			return fmt.Errorf("%s: failed to exec: %w", op, err)
		}
	}

	log.Info("catalog stored", "products", len(vs))
	return nil
}

func (r ProductsRepository) LoadProducts(
	ctx context.Context,
) (vs []domain.Product, err error) {
	const op = "ProductsRepository.LoadProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.sqldb.QueryContext(ctx, selectProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "err", err)
		}
	}()

	for rows.Next() {
		var (
			v        domain.Product
			position int
		)
		err := rows.Scan(
			&v.ID, &v.Name, &v.Brand, &v.Price, &v.OriginalPrice, &v.Discount,
			&v.Rating, &v.Reviews, &v.Stock, &v.Category, &v.Badge, &v.Image,
			&v.Featured, &position,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan: %w", op, err)
		}
		vs = append(vs, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}
