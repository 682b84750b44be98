// Package kv provides the key-value backends the ledger persists its
// collections to. Every value is an opaque JSON document.
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has never been written
var ErrKeyNotFound = errors.New("key not found")

// Store defines the operations every key-value backend supports.
// Each call is atomic for a single key; there are no cross-key transactions.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	Close() error
}
