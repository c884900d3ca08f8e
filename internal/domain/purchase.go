package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseStatus is the single human-facing status derived from a purchase's
// certificate and settlement state.
type PurchaseStatus string

const (
	StatusWithdrawn            PurchaseStatus = "withdrawn"
	StatusPendingAccountant    PurchaseStatus = "pending accountant"
	StatusRejectedByAccountant PurchaseStatus = "rejected by accountant"
	StatusPendingTeacher       PurchaseStatus = "pending teacher"
	StatusRejectedByTeacher    PurchaseStatus = "rejected by teacher"
	StatusPurchasing           PurchaseStatus = "purchasing"
	StatusAwaitingReturn       PurchaseStatus = "awaiting return"
	StatusCompleted            PurchaseStatus = "completed"
)

// Certificate is a signed approval record attached to one stage of a
// purchase. Approved=false on the request certificate means the requester
// withdrew the purchase.
type Certificate struct {
	SignedByID   uuid.UUID `json:"signedById"`
	SignedByName string    `json:"signedByName"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PurchaseItem is one line of a purchase: a product and a quantity.
type PurchaseItem struct {
	ID       uuid.UUID `json:"id"`
	Product  *Product  `json:"product"`
	Quantity int64     `json:"quantity"`
}

// Subtotal returns quantity × unit price for the line.
func (i *PurchaseItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// Purchase is one purchase request: line items plus up to three stage
// certificates. The request certificate always exists; the accountant and
// teacher certificates are nil until acted upon.
type Purchase struct {
	ID             uuid.UUID        `json:"id"`
	PartID         uuid.UUID        `json:"partId"`
	Note           string           `json:"note"`
	RequestedByID  uuid.UUID        `json:"requestedById"`
	Items          []*PurchaseItem  `json:"items"`
	RequestCert    Certificate      `json:"requestCert"`
	AccountantCert *Certificate     `json:"accountantCert,omitempty"`
	TeacherCert    *Certificate     `json:"teacherCert,omitempty"`
	ActualUsage    *decimal.Decimal `json:"actualUsage,omitempty"`
	ReturnedAt     *time.Time       `json:"returnedAt,omitempty"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// TotalPrice sums quantity × price over the line items. It is computed from
// the items every time, never cached, so certificate changes cannot affect it.
func (p *Purchase) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Status derives the display status. The first matching stage wins.
func (p *Purchase) Status() PurchaseStatus {
	if !p.RequestCert.Approved {
		return StatusWithdrawn
	}
	if p.AccountantCert == nil {
		return StatusPendingAccountant
	}
	if !p.AccountantCert.Approved {
		return StatusRejectedByAccountant
	}
	if p.TeacherCert == nil {
		return StatusPendingTeacher
	}
	if !p.TeacherCert.Approved {
		return StatusRejectedByTeacher
	}
	if p.ActualUsage == nil {
		return StatusPurchasing
	}
	if p.ReturnedAt == nil {
		return StatusAwaitingReturn
	}
	return StatusCompleted
}

// Rejected reports whether any stage was refused or the request withdrawn.
// Rejected purchases no longer reserve planned budget.
func (p *Purchase) Rejected() bool {
	if !p.RequestCert.Approved {
		return true
	}
	if p.AccountantCert != nil && !p.AccountantCert.Approved {
		return true
	}
	if p.TeacherCert != nil && !p.TeacherCert.Approved {
		return true
	}
	return false
}

// NewProductSpec describes an ad hoc product created together with a
// purchase item.
type NewProductSpec struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	DoesShare bool            `json:"doesShare"`
}

// PurchaseItemInput is one requested line at creation time: either a
// reference to an existing shared product or a spec for a new one.
type PurchaseItemInput struct {
	ProductID  *uuid.UUID      `json:"productId,omitempty"`
	NewProduct *NewProductSpec `json:"newProduct,omitempty"`
	Quantity   int64           `json:"quantity"`
}

// PurchaseRepository defines the interface for purchase persistence
// operations. Certificate setters must be serialized by the storage layer so
// concurrent approvals cannot both apply.
type PurchaseRepository interface {
	Create(partID, requesterID uuid.UUID, items []PurchaseItemInput, note string) (*Purchase, error)
	GetByID(id uuid.UUID) (*Purchase, error)
	ListByPart(partID uuid.UUID) ([]*Purchase, error)
	SetAccountantCert(purchaseID, signerID uuid.UUID, approved bool) error
	SetTeacherCert(purchaseID, signerID uuid.UUID, approved bool) error
	SetRequestApproved(purchaseID uuid.UUID, approved bool) error
	SetActualUsage(purchaseID uuid.UUID, amount decimal.Decimal) error
	SetReturned(purchaseID uuid.UUID, returnedAt time.Time) error
	// DeleteCascade removes the purchase, its items and any now-orphaned
	// private products in a single transaction. A failure in any step rolls
	// back the whole cascade.
	DeleteCascade(id uuid.UUID) error
}
