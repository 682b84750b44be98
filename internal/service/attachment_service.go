package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"path/filepath"
	"strings"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/blob"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

const (
	MaxAttachmentSize      = 10 * 1024 * 1024 // 10MB
	MaxAttachmentDimension = 1600
	MinAttachmentDimension = 50
	JPEGQuality            = 85
)

var (
	ErrImageTooLarge          = errors.New("file too large. Maximum size is 10MB")
	ErrInvalidFormat          = errors.New("invalid format. Supported: JPEG, PNG, GIF")
	ErrImageTooSmall          = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidImageData       = errors.New("invalid image data")
	ErrBlobStoreNotConfigured = errors.New("blob storage not configured")
	ErrAttachmentNotFound     = fmt.Errorf("attachment %w", domain.ErrNotFound)
)

// AllowedAttachmentExtensions lists the receipt formats accepted for upload
var AllowedAttachmentExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// AttachmentService stores receipt images for transactions
type AttachmentService struct {
	blobs  blob.Store
	ledger *LedgerService
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(blobs blob.Store, ledger *LedgerService) *AttachmentService {
	return &AttachmentService{blobs: blobs, ledger: ledger}
}

// IsEnabled indicates whether a blob store is configured
func (s *AttachmentService) IsEnabled() bool {
	return s != nil && s.blobs != nil
}

// AttachmentKey returns the blob key of a transaction's receipt
func AttachmentKey(transactionID string) string {
	return fmt.Sprintf("attachments/%s.jpg", transactionID)
}

// AttachmentPath returns the API path a transaction's receipt is served under
func AttachmentPath(transactionID string) string {
	return fmt.Sprintf("/api/v1/transactions/%s/attachment", transactionID)
}

// Upload validates the image, bounds it to MaxAttachmentDimension, stores it
// as JPEG and links it to the transaction. A previous receipt is replaced.
func (s *AttachmentService) Upload(ctx context.Context, transactionID string, data []byte, filename string) (*domain.Transaction, error) {
	if !s.IsEnabled() {
		return nil, ErrBlobStoreNotConfigured
	}

	// Fail before processing when the transaction is unknown
	if _, err := s.ledger.GetTransaction(ctx, transactionID); err != nil {
		return nil, err
	}

	// Check file size
	if len(data) > MaxAttachmentSize {
		return nil, ErrImageTooLarge
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedAttachmentExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinAttachmentDimension || bounds.Dy() < MinAttachmentDimension {
		return nil, ErrImageTooSmall
	}
	if bounds.Dx() > MaxAttachmentDimension || bounds.Dy() > MaxAttachmentDimension {
		img = imaging.Fit(img, MaxAttachmentDimension, MaxAttachmentDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	key := AttachmentKey(transactionID)
	if err := s.blobs.Put(ctx, key, &buf, "image/jpeg"); err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("Failed to store attachment")
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	return s.ledger.SetAttachment(ctx, transactionID, AttachmentPath(transactionID))
}

// Open returns the stored receipt of a transaction
func (s *AttachmentService) Open(ctx context.Context, transactionID string) (io.ReadCloser, error) {
	if !s.IsEnabled() {
		return nil, ErrBlobStoreNotConfigured
	}
	r, err := s.blobs.Get(ctx, AttachmentKey(transactionID))
	if errors.Is(err, blob.ErrObjectNotFound) {
		return nil, ErrAttachmentNotFound
	}
	return r, err
}

// Remove deletes a transaction's receipt. Best effort: failures are logged.
func (s *AttachmentService) Remove(ctx context.Context, transactionID string) {
	if !s.IsEnabled() {
		return
	}
	if err := s.blobs.Delete(ctx, AttachmentKey(transactionID)); err != nil {
		log.Warn().Err(err).Str("transaction_id", transactionID).Msg("Failed to delete attachment")
	}
}
