package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a class-level budget pool under an event. Teachers assigned to a
// wallet approve purchases for every part inside it.
type Wallet struct {
	ID          uuid.UUID       `json:"id"`
	EventID     uuid.UUID       `json:"eventId"`
	Name        string          `json:"name"`
	BudgetLimit decimal.Decimal `json:"budgetLimit"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// WalletWithParts carries a wallet together with its child parts, loaded for
// budget-invariant checks and wallet dashboards.
type WalletWithParts struct {
	Wallet
	Parts []*Part `json:"parts"`
}

// WalletRepository defines the interface for wallet persistence operations
type WalletRepository interface {
	Create(wallet *Wallet) (*Wallet, error)
	GetByID(id uuid.UUID) (*Wallet, error)
	GetWithParts(id uuid.UUID) (*WalletWithParts, error)
	ListByEvent(eventID uuid.UUID) ([]*Wallet, error)
	IsTeacher(walletID, teacherID uuid.UUID) (bool, error)
	AddTeacher(walletID, teacherID uuid.UUID) error
	AddAccountantStudent(walletID, studentID uuid.UUID) error
}
