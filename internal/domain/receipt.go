package domain

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is the metadata for a receipt image attached to a purchase as
// settlement evidence. The image bytes live in object storage.
type Receipt struct {
	ID         uuid.UUID `json:"id"`
	PurchaseID uuid.UUID `json:"purchaseId"`
	UploadedBy uuid.UUID `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ReceiptMetadata contains the served URLs for one stored receipt image.
type ReceiptMetadata struct {
	ID           string `json:"id"`
	ThumbnailURL string `json:"thumbnailUrl"`
	DisplayURL   string `json:"displayUrl"`
	OriginalURL  string `json:"originalUrl"`
}
