package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/repository/storage"
)

const (
	MaxReceiptSize  = 5 * 1024 * 1024 // 5MB
	MinReceiptWidth = 50
	MinReceiptHeight = 50
	ThumbnailWidth  = 200
	DisplayWidth    = 800
	JPEGQuality     = 85
	PresignExpiry   = 15 * time.Minute
)

var (
	ErrReceiptTooLarge            = errors.New("file too large. Maximum size is 5MB")
	ErrReceiptInvalidFormat       = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrReceiptTooSmall            = errors.New("image too small. Minimum 50x50 pixels")
	ErrReceiptInvalidData         = errors.New("invalid image data")
	ErrReceiptStorageNotConfigured = errors.New("receipt storage not configured")
)

// allowedReceiptExtensions maps extensions to content types
var allowedReceiptExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ReceiptService validates, resizes and stores receipt images attached to
// purchases as settlement evidence. Only purchases with recorded actual
// usage accept receipts, and only part reviewers may attach them.
type ReceiptService struct {
	storage      storage.ReceiptRepository
	purchaseRepo domain.PurchaseRepository
	partRepo     domain.PartRepository
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	storage storage.ReceiptRepository,
	purchaseRepo domain.PurchaseRepository,
	partRepo domain.PartRepository,
) *ReceiptService {
	return &ReceiptService{
		storage:      storage,
		purchaseRepo: purchaseRepo,
		partRepo:     partRepo,
	}
}

// IsEnabled indicates whether uploads are supported (storage configured).
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// validateAndDecode validates the image bytes and returns the decoded image
func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedReceiptExtensions[ext]; !ok {
		return nil, ErrReceiptInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrReceiptInvalidData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptHeight {
		return nil, ErrReceiptTooSmall
	}

	return img, nil
}

// Attach validates an uploaded receipt image, stores thumbnail, display and
// original variants, and returns presigned URLs for them.
func (s *ReceiptService) Attach(ctx context.Context, purchaseID uuid.UUID, actor *domain.Actor, data []byte, filename string) (*domain.ReceiptMetadata, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	role, err := s.partRepo.MemberRole(purchase.PartID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !role.CanReviewPurchases() {
		return nil, domain.ErrForbidden
	}
	if purchase.ActualUsage == nil {
		return nil, domain.ErrInvalidTransition
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	receiptID := uuid.New().String()

	variants := []struct {
		name     string
		maxWidth int
	}{
		{"thumb", ThumbnailWidth},
		{"display", DisplayWidth},
		{"original", 0}, // 0 keeps the original size
	}

	paths := make(map[string]string)
	for _, variant := range variants {
		var processed image.Image
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		} else {
			processed = img
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		objectPath := receiptObjectPath(purchaseID, receiptID, variant.name)
		if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			s.cleanupVariants(ctx, paths)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		paths[variant.name] = objectPath
	}

	return s.metadata(ctx, receiptID, paths)
}

// GetURLs returns fresh presigned URLs for an existing receipt.
func (s *ReceiptService) GetURLs(ctx context.Context, purchaseID uuid.UUID, receiptID string) (*domain.ReceiptMetadata, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}
	if _, err := s.purchaseRepo.GetByID(purchaseID); err != nil {
		return nil, err
	}

	paths := map[string]string{
		"thumb":    receiptObjectPath(purchaseID, receiptID, "thumb"),
		"display":  receiptObjectPath(purchaseID, receiptID, "display"),
		"original": receiptObjectPath(purchaseID, receiptID, "original"),
	}
	return s.metadata(ctx, receiptID, paths)
}

// Remove deletes all stored variants of a receipt.
func (s *ReceiptService) Remove(ctx context.Context, purchaseID uuid.UUID, actor *domain.Actor, receiptID string) error {
	if !s.IsEnabled() {
		return ErrReceiptStorageNotConfigured
	}
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return err
	}
	role, err := s.partRepo.MemberRole(purchase.PartID, actor.ID)
	if err != nil {
		return err
	}
	if !role.CanReviewPurchases() {
		return domain.ErrForbidden
	}

	for _, variant := range []string{"thumb", "display", "original"} {
		// best effort: keep deleting remaining variants on failure
		_ = s.storage.Delete(ctx, receiptObjectPath(purchaseID, receiptID, variant))
	}
	return nil
}

func (s *ReceiptService) metadata(ctx context.Context, receiptID string, paths map[string]string) (*domain.ReceiptMetadata, error) {
	urls := make(map[string]string, len(paths))
	for variant, objectPath := range paths {
		url, err := s.storage.GeneratePresignedURL(ctx, objectPath, PresignExpiry)
		if err != nil {
			return nil, fmt.Errorf("failed to presign %s variant: %w", variant, err)
		}
		urls[variant] = url
	}
	return &domain.ReceiptMetadata{
		ID:           receiptID,
		ThumbnailURL: urls["thumb"],
		DisplayURL:   urls["display"],
		OriginalURL:  urls["original"],
	}, nil
}

func (s *ReceiptService) cleanupVariants(ctx context.Context, paths map[string]string) {
	for _, objectPath := range paths {
		_ = s.storage.Delete(ctx, objectPath)
	}
}

func receiptObjectPath(purchaseID uuid.UUID, receiptID, variant string) string {
	return fmt.Sprintf("purchases/%s/%s_%s.jpg", purchaseID, receiptID, variant)
}
