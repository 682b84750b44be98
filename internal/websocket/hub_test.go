package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	entities []events.EntityType
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string, entities ...events.EntityType) *mockClient {
	return &mockClient{
		id:       id,
		entities: entities,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) Wants(entity events.EntityType) bool {
	if len(m.entities) == 0 {
		return true
	}
	for _, e := range m.entities {
		if e == entity {
			return true
		}
	}
	return false
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1")
	client2 := newMockClient("client-2")

	hub.Register(client1)
	hub.Register(client2)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(client2)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_Publish_EntityFilter(t *testing.T) {
	hub := NewHub()

	all := newMockClient("all")
	budgetsOnly := newMockClient("budgets", events.EntityTypeBudget)
	hub.Register(all)
	hub.Register(budgetsOnly)

	hub.Publish(context.Background(), events.TransactionCreated(map[string]any{"id": "t_1"}))

	// Give goroutines time to process
	time.Sleep(10 * time.Millisecond)

	msgs := all.GetMessages()
	require.Len(t, msgs, 1)
	assert.Len(t, budgetsOnly.GetMessages(), 0, "budget subscriber should not get transaction events")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msgs[0], &decoded))
	assert.Equal(t, "transaction.created", decoded["type"])
	assert.Equal(t, map[string]any{"id": "t_1"}, decoded["payload"])
}

func TestHub_Broadcast_MultipleFanOut(t *testing.T) {
	hub := NewHub()

	clients := make([]*mockClient, 5)
	for i := 0; i < 5; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i))
		hub.Register(clients[i])
	}

	hub.Broadcast(events.TransactionUpdated(map[string]any{"id": "t_1"}))

	// Give goroutines time to process
	time.Sleep(10 * time.Millisecond)

	for i, c := range clients {
		assert.Len(t, c.GetMessages(), 1, "client %d should receive message", i)
	}
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	clientCount := 50

	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i))
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, clientCount, hub.ClientCount())

	// Concurrently broadcast and unregister
	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			hub.Broadcast(events.TransactionCreated(map[string]any{"n": idx}))
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()
	a := newMockClient("a")
	b := newMockClient("b")
	hub.Register(a)
	hub.Register(b)

	hub.CloseAll()

	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Unregister(newMockClient("client-1"))
	})
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Broadcast(events.TransactionCreated(nil))
	})
}

func TestParseEntityFilter(t *testing.T) {
	assert.Nil(t, ParseEntityFilter(""))
	assert.Equal(t,
		[]events.EntityType{events.EntityTypeTransaction, events.EntityTypeBudget},
		ParseEntityFilter(" transaction, ,budget "))
}

func TestClient_Wants(t *testing.T) {
	open := NewClient(nil, nil, nil)
	assert.True(t, open.Wants(events.EntityTypeCategory))

	filtered := NewClient(nil, nil, []events.EntityType{events.EntityTypeLedger})
	assert.True(t, filtered.Wants(events.EntityTypeLedger))
	assert.False(t, filtered.Wants(events.EntityTypeTransaction))
}
