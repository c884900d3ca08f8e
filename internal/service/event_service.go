package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// EventService handles event administration
type EventService struct {
	eventRepo domain.EventRepository
}

// NewEventService creates a new EventService
func NewEventService(eventRepo domain.EventRepository) *EventService {
	return &EventService{eventRepo: eventRepo}
}

// Create creates a new budget event.
func (s *EventService) Create(name string, budgetLimit decimal.Decimal) (*domain.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	if budgetLimit.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	return s.eventRepo.Create(&domain.Event{Name: name, BudgetLimit: budgetLimit})
}

// Get retrieves an event by ID.
func (s *EventService) Get(id uuid.UUID) (*domain.Event, error) {
	return s.eventRepo.GetByID(id)
}

// List retrieves all events.
func (s *EventService) List() ([]*domain.Event, error) {
	return s.eventRepo.List()
}
