// Package storage is the persistence facade of the ledger. It reads and
// writes whole collections as JSON documents in a kv.Store and serializes
// every read-modify-write cycle per key.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/kv"
	"github.com/rs/zerolog/log"
)

// Adapter owns the kv.Store for the lifetime of the process. It is safe for
// concurrent use: mutations of the same key are applied one at a time.
type Adapter struct {
	store kv.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAdapter creates an Adapter over store
func NewAdapter(store kv.Store) *Adapter {
	return &Adapter{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// Close closes the underlying store
func (a *Adapter) Close() error {
	return a.store.Close()
}

func (a *Adapter) keyLock(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	return l
}

// lockKeys locks every key in lexical order and returns the unlock func.
// Fixed ordering keeps multi-key callers from deadlocking each other.
func (a *Adapter) lockKeys(keys []string) func() {
	sorted := dedupe(keys)
	sort.Strings(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, k := range sorted {
		l := a.keyLock(k)
		l.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// Tx is the handle passed to Update callbacks. Reads and writes through a Tx
// are limited to the keys locked for it.
type Tx struct {
	ctx  context.Context
	a    *Adapter
	keys map[string]bool
}

// Context returns the context the transaction runs under
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

func (tx *Tx) check(key string) error {
	if !tx.keys[key] {
		return fmt.Errorf("key %q is not locked by this update", key)
	}
	return nil
}

// Update locks keys, then runs fn. Writes are applied to the store as they
// happen; a failing fn does not roll back earlier writes. fn must not call
// other Adapter mutators for the same keys, the locks are not reentrant.
func (a *Adapter) Update(ctx context.Context, keys []string, fn func(tx *Tx) error) error {
	unlock := a.lockKeys(keys)
	defer unlock()

	tx := &Tx{ctx: ctx, a: a, keys: make(map[string]bool, len(keys))}
	for _, k := range keys {
		tx.keys[k] = true
	}
	return fn(tx)
}

// Read decodes a collection inside an Update
func Read[T any](tx *Tx, key string) ([]T, error) {
	if err := tx.check(key); err != nil {
		return nil, err
	}
	return readCollection[T](tx.ctx, tx.a.store, key)
}

// Write encodes and stores a collection inside an Update
func Write[T any](tx *Tx, key string, items []T) error {
	if err := tx.check(key); err != nil {
		return err
	}
	return writeValue(tx.ctx, tx.a.store, key, items)
}

// ReadObject decodes a singleton inside an Update
func ReadObject[T any](tx *Tx, key string) (*T, error) {
	if err := tx.check(key); err != nil {
		return nil, err
	}
	return readObject[T](tx.ctx, tx.a.store, key)
}

// WriteObject stores a singleton inside an Update
func WriteObject[T any](tx *Tx, key string, value T) error {
	if err := tx.check(key); err != nil {
		return err
	}
	return writeValue(tx.ctx, tx.a.store, key, value)
}

// Remove deletes key inside an Update. Removing a missing key is a no-op.
func Remove(tx *Tx, key string) error {
	if err := tx.check(key); err != nil {
		return err
	}
	if err := tx.a.store.Delete(tx.ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to delete value")
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func readCollection[T any](ctx context.Context, store kv.Store, key string) ([]T, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	items := make([]T, 0)
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func readObject[T any](ctx context.Context, store kv.Store, key string) (*T, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &value, nil
}

func writeValue(ctx context.Context, store kv.Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to save value")
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// GetCollection reads the full array stored under key. A missing key reads
// as an empty slice.
func GetCollection[T any](ctx context.Context, a *Adapter, key string) ([]T, error) {
	return readCollection[T](ctx, a.store, key)
}

// SaveCollection replaces the array stored under key
func SaveCollection[T any](ctx context.Context, a *Adapter, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	return a.Update(ctx, []string{key}, func(tx *Tx) error {
		return Write(tx, key, items)
	})
}

// Mutate runs a read-modify-write cycle on one collection under its lock
func Mutate[T any](ctx context.Context, a *Adapter, key string, fn func(items []T) ([]T, error)) error {
	return a.Update(ctx, []string{key}, func(tx *Tx) error {
		items, err := Read[T](tx, key)
		if err != nil {
			return err
		}
		updated, err := fn(items)
		if err != nil {
			return err
		}
		return Write(tx, key, updated)
	})
}

// AddItem appends item to the collection under key
func AddItem[T any](ctx context.Context, a *Adapter, key string, item T) error {
	err := Mutate(ctx, a, key, func(items []T) ([]T, error) {
		return append(items, item), nil
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to add item")
	}
	return err
}

// UpdateItem replaces the element with the same id. It returns
// domain.ErrNotFound when nothing matches.
func UpdateItem[T domain.Entity](ctx context.Context, a *Adapter, key string, item T) error {
	err := Mutate(ctx, a, key, func(items []T) ([]T, error) {
		for i := range items {
			if items[i].EntityID() == item.EntityID() {
				items[i] = item
				return items, nil
			}
		}
		return nil, fmt.Errorf("%s %s: %w", key, item.EntityID(), domain.ErrNotFound)
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Error().Err(err).Str("key", key).Msg("Failed to update item")
	}
	return err
}

// DeleteItem removes the element with the given id. Deleting a missing id
// is a no-op.
func DeleteItem[T domain.Entity](ctx context.Context, a *Adapter, key, id string) error {
	err := Mutate(ctx, a, key, func(items []T) ([]T, error) {
		kept := items[:0]
		for _, it := range items {
			if it.EntityID() != id {
				kept = append(kept, it)
			}
		}
		return kept, nil
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Str("id", id).Msg("Failed to delete item")
	}
	return err
}

// GetObject reads a singleton; a missing key returns domain.ErrNotFound
func GetObject[T any](ctx context.Context, a *Adapter, key string) (*T, error) {
	return readObject[T](ctx, a.store, key)
}

// SaveObject replaces a singleton
func SaveObject[T any](ctx context.Context, a *Adapter, key string, value T) error {
	return a.Update(ctx, []string{key}, func(tx *Tx) error {
		return WriteObject(tx, key, value)
	})
}

// ClearAll wipes every key, the initialization sentinel included
func (a *Adapter) ClearAll(ctx context.Context) error {
	keys := append(append([]string{}, domain.CollectionKeys...),
		domain.KeyUserSettings, domain.KeyUserProfile, domain.KeyFamilySharing, domain.KeyInitialized)
	unlock := a.lockKeys(keys)
	defer unlock()

	if err := a.store.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to clear storage")
		return fmt.Errorf("clear storage: %w", err)
	}
	return nil
}

// softCollection degrades a read failure to an empty collection. A storage
// outage therefore looks the same as an empty ledger to callers.
func softCollection[T any](ctx context.Context, a *Adapter, key string) []T {
	items, err := readCollection[T](ctx, a.store, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to read collection, using empty")
		return []T{}
	}
	return items
}

// Transactions returns the transaction log, empty on read failure
func (a *Adapter) Transactions(ctx context.Context) []domain.Transaction {
	return softCollection[domain.Transaction](ctx, a, domain.KeyTransactions)
}

// Categories returns every category, empty on read failure
func (a *Adapter) Categories(ctx context.Context) []domain.Category {
	return softCollection[domain.Category](ctx, a, domain.KeyCategories)
}

// Budgets returns every budget, empty on read failure
func (a *Adapter) Budgets(ctx context.Context) []domain.Budget {
	return softCollection[domain.Budget](ctx, a, domain.KeyBudgets)
}

// MonthlyData returns every cached month, empty on read failure
func (a *Adapter) MonthlyData(ctx context.Context) []domain.MonthlyData {
	return softCollection[domain.MonthlyData](ctx, a, domain.KeyMonthlyData)
}
