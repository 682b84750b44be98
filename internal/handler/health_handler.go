package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// HealthHandler reports whether the store is reachable
type HealthHandler struct {
	store *storage.Adapter
	hub   *websocket.Hub
}

// NewHealthHandler creates a new HealthHandler. hub may be nil.
func NewHealthHandler(store *storage.Adapter, hub *websocket.Hub) *HealthHandler {
	return &HealthHandler{store: store, hub: hub}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Initialized bool   `json:"initialized"`
	Clients     int    `json:"clients"`
}

// Check handles GET /health
func (h *HealthHandler) Check(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}

	initialized, err := storage.GetObject[bool](c.Request().Context(), h.store, domain.KeyInitialized)
	switch {
	case err == nil:
		resp.Initialized = *initialized
	case errors.Is(err, domain.ErrNotFound):
	default:
		log.Error().Err(err).Msg("Health check failed to reach store")
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
	}

	if h.hub != nil {
		resp.Clients = h.hub.ClientCount()
	}
	return c.JSON(http.StatusOK, resp)
}
