package websocket

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Connection timing and limits
const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	pingInterval = idleTimeout * 9 / 10

	// Clients only send pongs and close frames
	inboundLimit = 512

	// Events queued per client before it counts as slow
	queueSize = 64
)

// ErrSlowClient is returned when a client's queue is full. The client is
// disconnected so it can reconnect and refetch instead of missing events.
var ErrSlowClient = errors.New("client is not keeping up")

// Conn is the part of *websocket.Conn a Client uses
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one subscriber on the live event stream
type Client struct {
	id       string
	entities map[events.EntityType]bool
	conn     Conn
	hub      *Hub

	mu     sync.RWMutex
	queue  chan []byte
	closed bool
	once   sync.Once
}

// NewClient wraps an upgraded connection. An empty entity filter
// subscribes the client to every event.
func NewClient(conn Conn, hub *Hub, entities []events.EntityType) *Client {
	filter := make(map[events.EntityType]bool, len(entities))
	for _, e := range entities {
		filter[e] = true
	}
	return &Client{
		id:       uuid.NewString(),
		entities: filter,
		conn:     conn,
		hub:      hub,
		queue:    make(chan []byte, queueSize),
	}
}

// ParseEntityFilter splits a comma-separated list such as
// "transaction,budget" into entity types
func ParseEntityFilter(raw string) []events.EntityType {
	var entities []events.EntityType
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			entities = append(entities, events.EntityType(part))
		}
	}
	return entities
}

func (c *Client) ID() string {
	return c.id
}

// Wants reports whether the client subscribed to events about entity
func (c *Client) Wants(entity events.EntityType) bool {
	return len(c.entities) == 0 || c.entities[entity]
}

// Send queues data without blocking. A full queue disconnects the client.
func (c *Client) Send(data []byte) error {
	if err := c.enqueue(data); err != nil {
		if errors.Is(err, ErrSlowClient) {
			c.Close()
		}
		return err
	}
	return nil
}

func (c *Client) enqueue(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.queue <- data:
		return nil
	default:
		return ErrSlowClient
	}
}

// Close ends the write loop and closes the connection. Repeated calls are
// no-ops.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.queue)
		c.mu.Unlock()

		err = c.conn.Close()
	})
	return err
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Run starts the read and write loops. Both stop when the connection fails
// or the client is closed; the read loop unregisters the client from the hub.
func (c *Client) Run() {
	go c.writeLoop()
	go c.readLoop()
}

func (c *Client) extendIdle() error {
	return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// readLoop drains inbound frames so pongs and close frames are processed.
// The stream is one-way; inbound payloads are discarded.
func (c *Client) readLoop() {
	defer func() {
		if c.hub != nil {
			c.hub.Unregister(c)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(inboundLimit)
	c.extendIdle()
	c.conn.SetPongHandler(func(string) error { return c.extendIdle() })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("client_id", c.id).Msg("WebSocket closed unexpectedly")
			}
			return
		}
	}
}

// writeLoop delivers queued events and keeps the connection alive with pings
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data, ok := <-c.queue:
			if !ok {
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("client_id", c.id).Msg("WebSocket write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
