package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nishiko/matsuri-backend/internal/service"
	"github.com/shopspring/decimal"
)

// WalletHandler handles wallet HTTP endpoints
type WalletHandler struct {
	walletService *service.WalletService
	partService   *service.PartService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *service.WalletService, partService *service.PartService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		partService:   partService,
	}
}

// CreatePartRequest represents the create part request body
type CreatePartRequest struct {
	Name        string `json:"name"`
	BudgetLimit string `json:"budgetLimit"`
}

// AssignTeacherRequest represents the assign teacher request body
type AssignTeacherRequest struct {
	TeacherID string `json:"teacherId"`
}

// AssignAccountantRequest represents the assign accountant student request body
type AssignAccountantRequest struct {
	StudentID string `json:"studentId"`
}

// GetWallet retrieves one wallet.
func (h *WalletHandler) GetWallet(c echo.Context) error {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	wallet, err := h.walletService.Get(walletID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, wallet)
}

// CreatePart creates a part under a wallet. The part budget plus its sibling
// budgets must stay within the wallet budget.
func (h *WalletHandler) CreatePart(c echo.Context) error {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	var req CreatePartRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	budgetLimit, err := decimal.NewFromString(req.BudgetLimit)
	if err != nil {
		return NewValidationError(c, "Invalid budget limit", []ValidationError{
			{Field: "budgetLimit", Message: "Must be a valid decimal number"},
		})
	}

	part, err := h.partService.Create(walletID, req.Name, budgetLimit)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, part)
}

// AssignTeacher makes a teacher a reviewer for the wallet's purchases.
func (h *WalletHandler) AssignTeacher(c echo.Context) error {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	var req AssignTeacherRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	teacherID, err := uuid.Parse(req.TeacherID)
	if err != nil {
		return NewValidationError(c, "Invalid teacher ID", []ValidationError{
			{Field: "teacherId", Message: "Must be a valid UUID"},
		})
	}

	if err := h.walletService.AddTeacher(walletID, teacherID); err != nil {
		return domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignAccountant registers a student as one of the wallet's accountant
// students.
func (h *WalletHandler) AssignAccountant(c echo.Context) error {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	var req AssignAccountantRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return NewValidationError(c, "Invalid student ID", []ValidationError{
			{Field: "studentId", Message: "Must be a valid UUID"},
		})
	}

	if err := h.walletService.AddAccountantStudent(walletID, studentID); err != nil {
		return domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
