package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nishiko/matsuri-backend/internal/service"
	"github.com/shopspring/decimal"
)

// EventHandler handles festival event HTTP endpoints
type EventHandler struct {
	eventService  *service.EventService
	walletService *service.WalletService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService *service.EventService, walletService *service.WalletService) *EventHandler {
	return &EventHandler{
		eventService:  eventService,
		walletService: walletService,
	}
}

// CreateEventRequest represents the create event request body
type CreateEventRequest struct {
	Name        string `json:"name"`
	BudgetLimit string `json:"budgetLimit"`
}

// CreateWalletRequest represents the create wallet request body
type CreateWalletRequest struct {
	Name        string `json:"name"`
	BudgetLimit string `json:"budgetLimit"`
}

// CreateEvent creates a festival event with its total budget.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	budgetLimit, err := decimal.NewFromString(req.BudgetLimit)
	if err != nil {
		return NewValidationError(c, "Invalid budget limit", []ValidationError{
			{Field: "budgetLimit", Message: "Must be a valid decimal number"},
		})
	}

	event, err := h.eventService.Create(req.Name, budgetLimit)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, event)
}

// GetEvents lists all events.
func (h *EventHandler) GetEvents(c echo.Context) error {
	events, err := h.eventService.List()
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

// GetEvent retrieves one event.
func (h *EventHandler) GetEvent(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid event ID", nil)
	}

	event, err := h.eventService.Get(eventID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, event)
}

// CreateWallet creates a class/club wallet under an event. The wallet budget
// counts against the event budget together with its sibling wallets.
func (h *EventHandler) CreateWallet(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid event ID", nil)
	}

	var req CreateWalletRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	budgetLimit, err := decimal.NewFromString(req.BudgetLimit)
	if err != nil {
		return NewValidationError(c, "Invalid budget limit", []ValidationError{
			{Field: "budgetLimit", Message: "Must be a valid decimal number"},
		})
	}

	wallet, err := h.walletService.Create(eventID, req.Name, budgetLimit)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, wallet)
}

// GetWallets lists the wallets of an event.
func (h *EventHandler) GetWallets(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid event ID", nil)
	}

	wallets, err := h.walletService.ListByEvent(eventID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, wallets)
}
