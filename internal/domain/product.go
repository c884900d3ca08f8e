package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a purchasable item. Shared products (DoesShare=true) form the
// reusable catalog; private products are created for a single purchase and
// reclaimed once nothing references them.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	DoesShare bool            `json:"doesShare"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ProductRepository defines the interface for product persistence operations
type ProductRepository interface {
	Create(product *Product) (*Product, error)
	GetByID(id uuid.UUID) (*Product, error)
	ListShared() ([]*Product, error)
	// ReclaimOrphans deletes every private product with no referencing
	// purchase items and returns how many were removed. The operation is
	// atomic; shared products are never touched.
	ReclaimOrphans() (int64, error)
}
