package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Part is a team or work group under a wallet with its own budget. Students
// join parts with a role; purchases are requested against a part.
type Part struct {
	ID          uuid.UUID       `json:"id"`
	WalletID    uuid.UUID       `json:"walletId"`
	Name        string          `json:"name"`
	BudgetLimit decimal.Decimal `json:"budgetLimit"`
	MemberCount int             `json:"memberCount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// PartMember is a student's membership in a part with their role.
type PartMember struct {
	PartID   uuid.UUID `json:"partId"`
	Student  *Student  `json:"student"`
	Role     Role      `json:"role"`
	IsLeader bool      `json:"isLeader"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PartWithPurchases carries a part together with its fully loaded purchases,
// the query shape the budget calculator works from.
type PartWithPurchases struct {
	Part
	Purchases []*Purchase `json:"purchases"`
}

// PartRepository defines the interface for part persistence operations
type PartRepository interface {
	Create(part *Part) (*Part, error)
	GetByID(id uuid.UUID) (*Part, error)
	// GetWithBudgetContext loads the part with all purchases, their items,
	// products and certificates attached.
	GetWithBudgetContext(id uuid.UUID) (*PartWithPurchases, error)
	GetByWallet(walletID uuid.UUID) ([]*Part, error)
	// MemberRole returns the student's role in the part, or ErrNotPartMember.
	MemberRole(partID, studentID uuid.UUID) (Role, error)
	AddMember(partID, studentID uuid.UUID, role Role, isLeader bool) error
	UpdateMemberRole(partID, studentID uuid.UUID, role Role) error
	Members(partID uuid.UUID) ([]*PartMember, error)
}
