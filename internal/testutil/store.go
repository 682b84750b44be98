package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/kv"
)

// ErrInjected is returned by FailingStore for keys configured to fail
var ErrInjected = errors.New("injected storage failure")

// FailingStore wraps a kv.Store and fails selected operations
type FailingStore struct {
	kv.Store

	mu       sync.Mutex
	failGet  map[string]bool
	failSet  map[string]bool
	failAll  bool
	SetCalls int
}

// NewFailingStore wraps an in-memory store
func NewFailingStore() *FailingStore {
	return &FailingStore{
		Store:   kv.NewMemoryStore(),
		failGet: make(map[string]bool),
		failSet: make(map[string]bool),
	}
}

// FailGet makes Get fail for key
func (f *FailingStore) FailGet(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet[key] = true
}

// FailSet makes Set fail for key
func (f *FailingStore) FailSet(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[key] = true
}

// FailEverything makes every operation fail
func (f *FailingStore) FailEverything() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = true
}

// Get fails when configured, otherwise delegates
func (f *FailingStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failAll || f.failGet[key]
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.Store.Get(ctx, key)
}

// Set fails when configured, otherwise delegates
func (f *FailingStore) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.SetCalls++
	fail := f.failAll || f.failSet[key]
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Store.Set(ctx, key, value)
}

// Clear fails when every operation is configured to fail
func (f *FailingStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	fail := f.failAll
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Store.Clear(ctx)
}
