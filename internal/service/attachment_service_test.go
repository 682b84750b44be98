package service

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/blob"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(width, height, color.NRGBA{R: 200, G: 80, B: 40, A: 255})))
	return buf.Bytes()
}

func newTestAttachmentService(t *testing.T) (*AttachmentService, *LedgerService) {
	t.Helper()
	blobs, err := blob.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)
	ledger, _, _ := newTestLedger(t)
	return NewAttachmentService(blobs, ledger), ledger
}

func TestAttachmentUpload_BoundsLargeImages(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestAttachmentService(t)
	tx := record(t, ledger, "超市购物", -210, day(2025, time.May, 13), "shopping")

	updated, err := svc.Upload(ctx, tx.ID, testPNG(t, 3200, 1000), "receipt.PNG")
	require.NoError(t, err)
	require.NotNil(t, updated.AttachmentURL)
	assert.Equal(t, AttachmentPath(tx.ID), *updated.AttachmentURL)

	r, err := svc.Open(ctx, tx.ID)
	require.NoError(t, err)
	defer r.Close()
	img, err := imaging.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, 1600, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())
}

func TestAttachmentUpload_KeepsSmallImages(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestAttachmentService(t)
	tx := record(t, ledger, "打车", -35, day(2025, time.May, 14), "transport")

	_, err := svc.Upload(ctx, tx.ID, testPNG(t, 300, 400), "r.png")
	require.NoError(t, err)

	r, err := svc.Open(ctx, tx.ID)
	require.NoError(t, err)
	defer r.Close()
	img, err := imaging.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestAttachmentUpload_Validation(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestAttachmentService(t)
	tx := record(t, ledger, "午餐", -45, day(2025, time.May, 14), "food")

	tests := []struct {
		name     string
		id       string
		data     []byte
		filename string
		wantErr  error
	}{
		{"unknown transaction", "missing", testPNG(t, 100, 100), "a.png", domain.ErrTransactionNotFound},
		{"bad extension", tx.ID, testPNG(t, 100, 100), "a.pdf", ErrInvalidFormat},
		{"not an image", tx.ID, []byte("hello"), "a.jpg", ErrInvalidImageData},
		{"too small", tx.ID, testPNG(t, 10, 10), "a.png", ErrImageTooSmall},
		{"too large", tx.ID, make([]byte, MaxAttachmentSize+1), "a.png", ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.id, tt.data, tt.filename)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAttachment_OpenAndRemove(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestAttachmentService(t)
	tx := record(t, ledger, "午餐", -45, day(2025, time.May, 14), "food")

	_, err := svc.Open(ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Upload(ctx, tx.ID, testPNG(t, 100, 100), "a.jpg")
	require.NoError(t, err)

	svc.Remove(ctx, tx.ID)
	_, err = svc.Open(ctx, tx.ID)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestAttachment_Disabled(t *testing.T) {
	var svc *AttachmentService
	assert.False(t, svc.IsEnabled())

	svc = NewAttachmentService(nil, nil)
	_, err := svc.Upload(context.Background(), "t1", nil, "a.png")
	assert.ErrorIs(t, err, ErrBlobStoreNotConfigured)
}
