package websocket

import (
	"context"
	"errors"
	"sync"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	Wants(entity events.EntityType) bool
	Send(data []byte) error
	Close() error
}

// Hub fans ledger events out to every connected client.
// It is safe for concurrent use.
type Hub struct {
	clients map[string]ClientInterface
	mu      sync.RWMutex
}

// Ensure Hub implements events.Publisher
var _ events.Publisher = (*Hub)(nil)

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]ClientInterface),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID()] = client

	log.Debug().Str("client_id", client.ID()).Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID()]; ok {
		delete(h.clients, client.ID())
		log.Debug().Str("client_id", client.ID()).Msg("WebSocket client unregistered")
	}
}

// Publish implements events.Publisher
func (h *Hub) Publish(ctx context.Context, event events.Event) {
	h.Broadcast(event)
}

// Broadcast sends an event to every client interested in its entity
func (h *Hub) Broadcast(event events.Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	// Copy clients to avoid holding lock during send
	h.mu.RLock()
	targets := make([]ClientInterface, 0, len(h.clients))
	for _, client := range h.clients {
		if client.Wants(event.Entity) {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	for _, client := range targets {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Str("event_type", event.Type).
		Int("client_count", len(targets)).
		Msg("Broadcast event")
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client, used on shutdown
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]ClientInterface)
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.Close(); err != nil {
			log.Debug().Err(err).Str("client_id", c.ID()).Msg("WebSocket close error")
		}
	}
}
