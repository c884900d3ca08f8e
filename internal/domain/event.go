package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is the top-level budget envelope for one occasion, e.g. a school
// festival. Wallets are created under an event.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	BudgetLimit decimal.Decimal `json:"budgetLimit"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// EventRepository defines the interface for event persistence operations
type EventRepository interface {
	Create(event *Event) (*Event, error)
	GetByID(id uuid.UUID) (*Event, error)
	List() ([]*Event, error)
}
