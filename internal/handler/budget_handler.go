package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nishiko/matsuri-backend/internal/service"
)

// BudgetHandler serves computed budget summaries for parts and wallets
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// GetPartBudget returns usage, planned usage, remaining and the display
// percent for one part.
func (h *BudgetHandler) GetPartBudget(c echo.Context) error {
	partID, err := uuid.Parse(c.Param("partId"))
	if err != nil {
		return NewValidationError(c, "Invalid part ID", nil)
	}

	summary, err := h.budgetService.PartSummary(partID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// GetWalletBudget returns the wallet figures plus per-part summaries.
func (h *BudgetHandler) GetWalletBudget(c echo.Context) error {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	summary, err := h.budgetService.WalletSummary(walletID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
