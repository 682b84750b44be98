package blob

import (
	"context"
	"fmt"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/config"
)

// Open creates the blob store selected by cfg.Driver
func Open(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Driver {
	case config.BlobDriverLocal, "":
		return NewLocalStore(cfg.Dir, cfg.BaseURL)
	case config.BlobDriverS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
