package handler

import (
	"net/http"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// SettingsHandler handles user settings requests
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// UpdateSettingsRequest represents a partial settings update; omitted fields
// keep their value
type UpdateSettingsRequest struct {
	Theme                *string `json:"theme,omitempty"`
	Currency             *string `json:"currency,omitempty"`
	Language             *string `json:"language,omitempty"`
	NotificationsEnabled *bool   `json:"notificationsEnabled,omitempty"`
}

// GetSettings handles GET /api/v1/settings
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	settings, err := h.settingsService.GetSettings(c.Request().Context())
	if err != nil {
		return NewServiceError(c, err, "Failed to get settings")
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	var req UpdateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateSettingsInput{
		Currency:             req.Currency,
		Language:             req.Language,
		NotificationsEnabled: req.NotificationsEnabled,
	}
	if req.Theme != nil {
		theme := domain.Theme(*req.Theme)
		input.Theme = &theme
	}

	settings, err := h.settingsService.UpdateSettings(c.Request().Context(), input)
	if err != nil {
		return NewServiceError(c, err, "Failed to update settings")
	}
	return c.JSON(http.StatusOK, settings)
}
