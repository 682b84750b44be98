// Package blob stores opaque objects such as exports and receipt images.
package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
)

// ErrObjectNotFound is returned when no object exists under a key
var ErrObjectNotFound = fmt.Errorf("object %w", domain.ErrNotFound)

// Store is an object store addressed by slash-separated keys
type Store interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}
