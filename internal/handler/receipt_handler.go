package handler

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nishiko/matsuri-backend/internal/middleware"
	"github.com/nishiko/matsuri-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// ReceiptHandler handles receipt image HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ReceiptResponse represents a stored receipt in API responses
type ReceiptResponse struct {
	ID           string `json:"id"`
	ThumbnailURL string `json:"thumbnailUrl"`
	DisplayURL   string `json:"displayUrl"`
	OriginalURL  string `json:"originalUrl"`
}

// AttachReceipt handles POST /api/v1/purchases/:id/receipt
func (h *ReceiptHandler) AttachReceipt(c echo.Context) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	// If storage isn't configured, don't attempt to process/upload (would panic on nil storage).
	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid purchase ID", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	metadata, err := h.receiptService.Attach(c.Request().Context(), purchaseID, actor, data, file.Filename)
	if err != nil {
		switch err {
		case service.ErrReceiptTooLarge, service.ErrReceiptInvalidFormat,
			service.ErrReceiptTooSmall, service.ErrReceiptInvalidData:
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: err.Error()},
			})
		default:
			return domainError(c, err)
		}
	}

	log.Info().
		Str("purchase_id", purchaseID.String()).
		Str("receipt_id", metadata.ID).
		Msg("Receipt uploaded")

	return c.JSON(http.StatusCreated, ReceiptResponse{
		ID:           metadata.ID,
		ThumbnailURL: metadata.ThumbnailURL,
		DisplayURL:   metadata.DisplayURL,
		OriginalURL:  metadata.OriginalURL,
	})
}

// GetReceipt handles GET /api/v1/purchases/:id/receipt/:receiptId and returns
// fresh presigned URLs for the stored variants.
func (h *ReceiptHandler) GetReceipt(c echo.Context) error {
	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt storage is disabled (not configured)")
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid purchase ID", nil)
	}
	receiptID := c.Param("receiptId")
	if receiptID == "" {
		return NewValidationError(c, "Receipt ID required", nil)
	}

	metadata, err := h.receiptService.GetURLs(c.Request().Context(), purchaseID, receiptID)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, ReceiptResponse{
		ID:           metadata.ID,
		ThumbnailURL: metadata.ThumbnailURL,
		DisplayURL:   metadata.DisplayURL,
		OriginalURL:  metadata.OriginalURL,
	})
}

// DeleteReceipt handles DELETE /api/v1/purchases/:id/receipt/:receiptId
func (h *ReceiptHandler) DeleteReceipt(c echo.Context) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt deletion is disabled (storage not configured)")
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid purchase ID", nil)
	}
	receiptID := c.Param("receiptId")
	if receiptID == "" {
		return NewValidationError(c, "Receipt ID required", nil)
	}

	if err := h.receiptService.Remove(c.Request().Context(), purchaseID, actor, receiptID); err != nil {
		return domainError(c, err)
	}

	log.Info().
		Str("purchase_id", purchaseID.String()).
		Str("receipt_id", receiptID).
		Msg("Receipt deleted")

	return c.NoContent(http.StatusNoContent)
}
