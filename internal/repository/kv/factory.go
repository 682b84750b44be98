package kv

import (
	"context"
	"fmt"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/config"
)

// Open creates the backend selected by cfg.Driver
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreDriverMemory:
		return NewMemoryStore(), nil
	case config.StoreDriverSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.StoreDriverPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.StoreDriverRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
