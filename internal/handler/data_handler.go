package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MaxImportSize bounds an uploaded snapshot
const MaxImportSize = 32 * 1024 * 1024

// DataHandler handles whole-ledger export, import and reset
type DataHandler struct {
	exportService *service.ExportService
}

// NewDataHandler creates a new DataHandler
func NewDataHandler(exportService *service.ExportService) *DataHandler {
	return &DataHandler{exportService: exportService}
}

// ResetRequest represents the reset request body
type ResetRequest struct {
	Reseed bool `json:"reseed"`
}

// Export handles POST /api/v1/data/export
// The snapshot is written to blob storage and its location returned. With
// ?download=true, or without blob storage, the snapshot itself is returned.
func (h *DataHandler) Export(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("download") != "true" {
		result, err := h.exportService.Export(ctx)
		if err == nil {
			return c.JSON(http.StatusCreated, result)
		}
		if !errors.Is(err, service.ErrBlobStoreNotConfigured) {
			return NewServiceError(c, err, "Failed to export data")
		}
	}

	snap, err := h.exportService.Snapshot(ctx)
	if err != nil {
		return NewServiceError(c, err, "Failed to export data")
	}

	filename := fmt.Sprintf("pocketbook-%s.json", snap.ExportedAt.Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.JSON(http.StatusOK, snap)
}

// Import handles POST /api/v1/data/import
// The snapshot comes from ?key= in blob storage, a multipart "file" field or
// the JSON request body.
func (h *DataHandler) Import(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		summary *service.ImportSummary
		err     error
	)

	switch {
	case c.QueryParam("key") != "":
		summary, err = h.exportService.ImportFromBlob(ctx, c.QueryParam("key"))
	case strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm):
		var snap *domain.Snapshot
		snap, err = readSnapshotFile(c)
		if err != nil {
			return NewValidationError(c, "Invalid snapshot file", []ValidationError{
				{Field: "file", Message: err.Error()},
			})
		}
		summary, err = h.exportService.Import(ctx, snap)
	default:
		var snap domain.Snapshot
		body := http.MaxBytesReader(c.Response(), c.Request().Body, MaxImportSize)
		if decodeErr := json.NewDecoder(body).Decode(&snap); decodeErr != nil {
			return NewValidationError(c, "Invalid snapshot", nil)
		}
		summary, err = h.exportService.Import(ctx, &snap)
	}

	if err != nil {
		return NewServiceError(c, err, "Failed to import data")
	}

	log.Info().
		Int("transactions", summary.Transactions).
		Int("categories", summary.Categories).
		Int("budgets", summary.Budgets).
		Msg("Ledger imported")

	return c.JSON(http.StatusOK, summary)
}

func readSnapshotFile(c echo.Context) (*domain.Snapshot, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("file is required")
	}
	if file.Size > MaxImportSize {
		return nil, errors.New("file too large")
	}

	src, err := file.Open()
	if err != nil {
		return nil, errors.New("file could not be opened")
	}
	defer src.Close()

	var snap domain.Snapshot
	if err := json.NewDecoder(src).Decode(&snap); err != nil {
		return nil, errors.New("file is not a valid snapshot")
	}
	return &snap, nil
}

// Reset handles POST /api/v1/data/reset
func (h *DataHandler) Reset(c echo.Context) error {
	var req ResetRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return NewValidationError(c, "Invalid request body", nil)
		}
	}

	if err := h.exportService.Reset(c.Request().Context(), req.Reseed); err != nil {
		return NewServiceError(c, err, "Failed to reset data")
	}

	log.Warn().Bool("reseed", req.Reseed).Msg("Ledger reset")
	return c.NoContent(http.StatusNoContent)
}
