package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// PurchaseService handles purchase request creation and queries
type PurchaseService struct {
	purchaseRepo domain.PurchaseRepository
	partRepo     domain.PartRepository
	productRepo  domain.ProductRepository
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(
	purchaseRepo domain.PurchaseRepository,
	partRepo domain.PartRepository,
	productRepo domain.ProductRepository,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		partRepo:     partRepo,
		productRepo:  productRepo,
	}
}

// PurchaseView is a purchase with its derived status and total attached for
// presentation.
type PurchaseView struct {
	*domain.Purchase
	Status     domain.PurchaseStatus `json:"status"`
	TotalPrice decimal.Decimal       `json:"totalPrice"`
}

// Create validates and creates a purchase request. The requester must hold
// any role in the part; the item list must be non-empty even when the total
// is zero (free items are legal, an empty request is not). Each item either
// connects an existing shared product or creates a new one, and the purchase
// is born with an approved request certificate signed by the requester.
func (s *PurchaseService) Create(partID uuid.UUID, requester *domain.Actor, items []domain.PurchaseItemInput, note string) (*domain.Purchase, error) {
	if _, err := s.partRepo.MemberRole(partID, requester.ID); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, domain.ErrEmptyItems
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		switch {
		case item.ProductID != nil:
			if _, err := s.productRepo.GetByID(*item.ProductID); err != nil {
				return nil, err
			}
		case item.NewProduct != nil:
			name := strings.TrimSpace(item.NewProduct.Name)
			if name == "" {
				return nil, domain.ErrNameRequired
			}
			if len(name) > domain.MaxNameLength {
				return nil, domain.ErrNameTooLong
			}
			if item.NewProduct.Price.IsNegative() {
				return nil, domain.ErrInvalidAmount
			}
		default:
			return nil, domain.ErrProductNotFound
		}
	}

	note = strings.TrimSpace(note)
	if len(note) > domain.MaxNoteLength {
		return nil, domain.ErrNameTooLong
	}
	if note == "" {
		note = s.defaultNote(items)
	}

	return s.purchaseRepo.Create(partID, requester.ID, items, note)
}

// defaultNote builds a "name ×qty、…" digest of the items, the placeholder
// the request form shows when the requester leaves the note empty.
func (s *PurchaseService) defaultNote(items []domain.PurchaseItemInput) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		name := ""
		if item.NewProduct != nil {
			name = item.NewProduct.Name
		} else if item.ProductID != nil {
			if product, err := s.productRepo.GetByID(*item.ProductID); err == nil {
				name = product.Name
			}
		}
		if name == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s ×%d", name, item.Quantity))
	}
	return strings.Join(parts, "、")
}

// Get retrieves a purchase with its derived status and total price.
func (s *PurchaseService) Get(purchaseID uuid.UUID) (*PurchaseView, error) {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	return toView(purchase), nil
}

// ListByPart retrieves all purchases of a part with statuses and totals.
func (s *PurchaseService) ListByPart(partID uuid.UUID) ([]*PurchaseView, error) {
	if _, err := s.partRepo.GetByID(partID); err != nil {
		return nil, err
	}
	purchases, err := s.purchaseRepo.ListByPart(partID)
	if err != nil {
		return nil, err
	}
	views := make([]*PurchaseView, len(purchases))
	for i, purchase := range purchases {
		views[i] = toView(purchase)
	}
	return views, nil
}

func toView(purchase *domain.Purchase) *PurchaseView {
	return &PurchaseView{
		Purchase:   purchase,
		Status:     purchase.Status(),
		TotalPrice: purchase.TotalPrice(),
	}
}
