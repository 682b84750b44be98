// Package app wires storage, blob storage, event publishing and services
// from configuration. Both the API server and the CLI build on it.
package app

import (
	"context"
	"fmt"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/amqp"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/config"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/blob"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/kv"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/service"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/rs/zerolog/log"
)

// App holds the wired components
type App struct {
	Store     *storage.Adapter
	Blobs     blob.Store
	Publisher events.Publisher

	Ledger      *service.LedgerService
	Categories  *service.CategoryService
	Budgets     *service.BudgetService
	Settings    *service.SettingsService
	Profile     *service.ProfileService
	Attachments *service.AttachmentService
	Export      *service.ExportService

	amqp *amqp.Publisher
}

// New opens the configured store and blob store and builds every service.
// Events go to the given publishers plus AMQP when AMQP_URL is set. Blob
// storage and AMQP are optional: failures to reach them are logged and the
// app continues without them.
func New(ctx context.Context, cfg *config.Config, publishers ...events.Publisher) (*App, error) {
	kvStore, err := kv.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	store := storage.NewAdapter(kvStore)
	log.Info().Str("driver", cfg.Store.Driver).Msg("Connected to store")

	a := &App{Store: store}

	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Blob.Driver).Msg("Blob storage unavailable, attachments and exports disabled")
	} else {
		a.Blobs = blobs
		log.Info().Str("driver", cfg.Blob.Driver).Msg("Initialized blob storage")
	}

	if cfg.AMQP.URL != "" {
		publisher, err := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize AMQP publisher, continuing without it")
		} else {
			a.amqp = publisher
			publishers = append(publishers, publisher)
			log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("Initialized AMQP publisher")
		}
	}
	a.Publisher = events.MultiPublisher(publishers)

	a.Ledger = service.NewLedgerService(store, a.Publisher)
	a.Categories = service.NewCategoryService(store, a.Publisher)
	a.Budgets = service.NewBudgetService(store, a.Publisher)
	a.Settings = service.NewSettingsService(store, a.Publisher)
	a.Profile = service.NewProfileService(store, a.Publisher)
	a.Attachments = service.NewAttachmentService(a.Blobs, a.Ledger)
	a.Export = service.NewExportService(store, a.Blobs, a.Ledger, a.Publisher)

	return a, nil
}

// Close releases the store and the AMQP connection
func (a *App) Close() error {
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close AMQP publisher")
		}
	}
	return a.Store.Close()
}
