package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/middleware"
	"github.com/nishiko/matsuri-backend/internal/service"
	"github.com/shopspring/decimal"
)

// PurchaseHandler handles purchase request HTTP endpoints
type PurchaseHandler struct {
	purchaseService *service.PurchaseService
	approvalService *service.ApprovalService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService *service.PurchaseService, approvalService *service.ApprovalService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		approvalService: approvalService,
	}
}

// CreatePurchaseRequest represents the create purchase request body
type CreatePurchaseRequest struct {
	Items []PurchaseItemRequest `json:"items"`
	Note  string                `json:"note"`
}

// PurchaseItemRequest is one requested line: an existing product by id or an
// inline new product
type PurchaseItemRequest struct {
	ProductID  *string            `json:"productId,omitempty"`
	NewProduct *NewProductRequest `json:"newProduct,omitempty"`
	Quantity   int64              `json:"quantity"`
}

// NewProductRequest describes a product created together with the purchase
type NewProductRequest struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	DoesShare bool   `json:"doesShare"`
}

// ReviewRequest represents an approve/reject decision body
type ReviewRequest struct {
	Action string `json:"action"`
}

// CompleteRequest represents the settlement body recording what was spent
type CompleteRequest struct {
	ActualUsage string `json:"actualUsage"`
}

// CreatePurchase creates a purchase request in a part on behalf of the
// authenticated student.
func (h *PurchaseHandler) CreatePurchase(c echo.Context) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	partID, err := uuid.Parse(c.Param("partId"))
	if err != nil {
		return NewValidationError(c, "Invalid part ID", nil)
	}

	var req CreatePurchaseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	items := make([]domain.PurchaseItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		input := domain.PurchaseItemInput{Quantity: item.Quantity}
		if item.ProductID != nil {
			productID, err := uuid.Parse(*item.ProductID)
			if err != nil {
				return NewValidationError(c, "Invalid product ID", []ValidationError{
					{Field: "items.productId", Message: "Must be a valid UUID"},
				})
			}
			input.ProductID = &productID
		}
		if item.NewProduct != nil {
			price, err := decimal.NewFromString(item.NewProduct.Price)
			if err != nil {
				return NewValidationError(c, "Invalid price", []ValidationError{
					{Field: "items.newProduct.price", Message: "Must be a valid decimal number"},
				})
			}
			input.NewProduct = &domain.NewProductSpec{
				Name:      item.NewProduct.Name,
				Price:     price,
				DoesShare: item.NewProduct.DoesShare,
			}
		}
		items = append(items, input)
	}

	purchase, err := h.purchaseService.Create(partID, actor, items, req.Note)
	if err != nil {
		return domainError(c, err)
	}

	view, err := h.purchaseService.Get(purchase.ID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// GetPurchases lists all purchases of a part with derived statuses.
func (h *PurchaseHandler) GetPurchases(c echo.Context) error {
	partID, err := uuid.Parse(c.Param("partId"))
	if err != nil {
		return NewValidationError(c, "Invalid part ID", nil)
	}

	views, err := h.purchaseService.ListByPart(partID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, views)
}

// GetPurchase retrieves a single purchase with its derived status.
func (h *PurchaseHandler) GetPurchase(c echo.Context) error {
	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid purchase ID", nil)
	}

	view, err := h.purchaseService.Get(purchaseID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// AccountantReview records the accountant decision on a pending purchase.
// Approve moves it to the teacher stage; reject removes it entirely.
func (h *PurchaseHandler) AccountantReview(c echo.Context) error {
	actor, purchaseID, approve, errResp := h.reviewParams(c)
	if errResp != nil {
		return errResp
	}

	if approve {
		purchase, err := h.approvalService.ApproveAsAccountant(purchaseID, actor)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(http.StatusOK, toStatusView(purchase))
	}

	if err := h.approvalService.RejectAsAccountant(purchaseID, actor); err != nil {
		return domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TeacherReview records the teacher decision on an accountant-approved
// purchase.
func (h *PurchaseHandler) TeacherReview(c echo.Context) error {
	actor, purchaseID, approve, errResp := h.reviewParams(c)
	if errResp != nil {
		return errResp
	}

	if approve {
		purchase, err := h.approvalService.ApproveAsTeacher(purchaseID, actor)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(http.StatusOK, toStatusView(purchase))
	}

	if err := h.approvalService.RejectAsTeacher(purchaseID, actor); err != nil {
		return domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Complete records the actual amount spent for a purchasing-stage purchase.
func (h *PurchaseHandler) Complete(c echo.Context) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid purchase ID", nil)
	}

	var req CompleteRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	actualUsage, err := decimal.NewFromString(req.ActualUsage)
	if err != nil {
		return NewValidationError(c, "Invalid actual usage", []ValidationError{
			{Field: "actualUsage", Message: "Must be a valid decimal number"},
		})
	}

	purchase, err := h.approvalService.Complete(purchaseID, actor, actualUsage)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, toStatusView(purchase))
}

// Return records that change and receipts were handed back, completing the
// purchase.
func (h *PurchaseHandler) Return(c echo.Context) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid purchase ID", nil)
	}

	purchase, err := h.approvalService.Return(purchaseID, actor)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, toStatusView(purchase))
}

// Cancel removes a fully approved purchase that has not recorded actual
// usage yet.
func (h *PurchaseHandler) Cancel(c echo.Context) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid purchase ID", nil)
	}

	if err := h.approvalService.Cancel(purchaseID, actor); err != nil {
		return domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Withdraw marks the purchase withdrawn by its requester while it is still
// awaiting accountant review.
func (h *PurchaseHandler) Withdraw(c echo.Context) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid purchase ID", nil)
	}

	purchase, err := h.approvalService.Withdraw(purchaseID, actor)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, toStatusView(purchase))
}

// reviewParams binds the shared review inputs: actor, purchase id and the
// approve/reject action.
func (h *PurchaseHandler) reviewParams(c echo.Context) (*domain.Actor, uuid.UUID, bool, error) {
	actor := middleware.GetActor(c)
	if actor == nil {
		return nil, uuid.Nil, false, NewUnauthorizedError(c, "Authentication required")
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, uuid.Nil, false, NewValidationError(c, "Invalid purchase ID", nil)
	}

	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return nil, uuid.Nil, false, NewValidationError(c, "Invalid request body", nil)
	}
	switch req.Action {
	case "approve":
		return actor, purchaseID, true, nil
	case "reject":
		return actor, purchaseID, false, nil
	default:
		return nil, uuid.Nil, false, NewValidationError(c, "Invalid action", []ValidationError{
			{Field: "action", Message: "Must be one of: approve, reject"},
		})
	}
}

func toStatusView(purchase *domain.Purchase) *service.PurchaseView {
	return &service.PurchaseView{
		Purchase:   purchase,
		Status:     purchase.Status(),
		TotalPrice: purchase.TotalPrice(),
	}
}
