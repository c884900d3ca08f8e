package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// ProductService handles the shared product catalog and the private-product
// lifecycle.
type ProductService struct {
	productRepo domain.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo domain.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateShared adds a product to the shared catalog.
func (s *ProductService) CreateShared(spec domain.NewProductSpec) (*domain.Product, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	if spec.Price.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	return s.productRepo.Create(&domain.Product{
		Name:      name,
		Price:     spec.Price,
		DoesShare: true,
	})
}

// ListShared retrieves the shared catalog for the request builder.
func (s *ProductService) ListShared() ([]*domain.Product, error) {
	return s.productRepo.ListShared()
}

// Get retrieves one product.
func (s *ProductService) Get(id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.GetByID(id)
}

// ReclaimOrphans deletes private products no purchase item references
// anymore. Purchase deletion already reclaims inside its own transaction;
// this is the standalone sweep for anything left behind by older data.
func (s *ProductService) ReclaimOrphans() (int64, error) {
	reclaimed, err := s.productRepo.ReclaimOrphans()
	if err != nil {
		return 0, err
	}
	if reclaimed > 0 {
		log.Info().Int64("count", reclaimed).Msg("Reclaimed orphaned private products")
	}
	return reclaimed, nil
}
