package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nishiko/matsuri-backend/internal/domain"
)

// ProductRepository implements domain.ProductRepository using PostgreSQL
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create creates a new product
func (r *ProductRepository) Create(product *domain.Product) (*domain.Product, error) {
	ctx := context.Background()

	price, err := decimalToPgNumeric(product.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (id, name, price, does_share)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, name, price, does_share, created_at`,
		product.Name, price, product.DoesShare)
	return scanProduct(row)
}

// GetByID retrieves a product by its ID
func (r *ProductRepository) GetByID(id uuid.UUID) (*domain.Product, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, price, does_share, created_at
		FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// ListShared retrieves the shared product catalog
func (r *ProductRepository) ListShared() ([]*domain.Product, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price, does_share, created_at
		FROM products WHERE does_share = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// ReclaimOrphans deletes private products no purchase item references
func (r *ProductRepository) ReclaimOrphans() (int64, error) {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM products p
		WHERE p.does_share = FALSE
		  AND NOT EXISTS (
			SELECT 1 FROM purchase_items i WHERE i.product_id = p.id
		  )`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var product domain.Product
	var price pgtype.Numeric
	if err := row.Scan(&product.ID, &product.Name, &price, &product.DoesShare, &product.CreatedAt); err != nil {
		return nil, err
	}
	product.Price = pgNumericToDecimal(price)
	return &product, nil
}
