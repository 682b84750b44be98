package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/blob"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ExportResult describes a stored export document
type ExportResult struct {
	Key      string           `json:"key"`
	URL      string           `json:"url"`
	Snapshot *domain.Snapshot `json:"-"`
}

// ImportSummary counts what an import wrote
type ImportSummary struct {
	Transactions int `json:"transactions"`
	Categories   int `json:"categories"`
	Budgets      int `json:"budgets"`
}

// ExportService moves the whole ledger in and out as a snapshot document
type ExportService struct {
	store     *storage.Adapter
	blobs     blob.Store
	ledger    *LedgerService
	publisher events.Publisher
	now       func() time.Time
}

// NewExportService creates a new ExportService. blobs may be nil when only
// in-memory snapshots are needed.
func NewExportService(store *storage.Adapter, blobs blob.Store, ledger *LedgerService, publisher events.Publisher) *ExportService {
	if publisher == nil {
		publisher = events.NoOpPublisher{}
	}
	return &ExportService{
		store:     store,
		blobs:     blobs,
		ledger:    ledger,
		publisher: publisher,
		now:       time.Now,
	}
}

func optionalObject[T any](ctx context.Context, a *storage.Adapter, key string) (*T, error) {
	value, err := storage.GetObject[T](ctx, a, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

// Snapshot reads every key concurrently into one document. Any read failure
// fails the snapshot; an export never silently drops data.
func (s *ExportService) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{
		Version:    domain.SnapshotVersion,
		ExportedAt: s.now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Transactions, err = storage.GetCollection[domain.Transaction](gctx, s.store, domain.KeyTransactions)
		return err
	})
	g.Go(func() (err error) {
		snap.Categories, err = storage.GetCollection[domain.Category](gctx, s.store, domain.KeyCategories)
		return err
	})
	g.Go(func() (err error) {
		snap.Budgets, err = storage.GetCollection[domain.Budget](gctx, s.store, domain.KeyBudgets)
		return err
	})
	g.Go(func() (err error) {
		snap.MonthlyData, err = storage.GetCollection[domain.MonthlyData](gctx, s.store, domain.KeyMonthlyData)
		return err
	})
	g.Go(func() (err error) {
		snap.Settings, err = optionalObject[domain.UserSettings](gctx, s.store, domain.KeyUserSettings)
		return err
	})
	g.Go(func() (err error) {
		snap.Profile, err = optionalObject[domain.UserProfile](gctx, s.store, domain.KeyUserProfile)
		return err
	})
	g.Go(func() (err error) {
		snap.Family, err = optionalObject[domain.FamilySharing](gctx, s.store, domain.KeyFamilySharing)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Failed to snapshot ledger")
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

// Export writes a snapshot to the blob store and returns where it went
func (s *ExportService) Export(ctx context.Context) (*ExportResult, error) {
	if s.blobs == nil {
		return nil, ErrBlobStoreNotConfigured
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := fmt.Sprintf("exports/pocketbook-%s.json", snap.ExportedAt.Format("20060102-150405"))
	if err := s.blobs.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	url, err := s.blobs.URL(ctx, key)
	if err != nil {
		return nil, err
	}

	log.Info().Str("key", key).Int("transactions", len(snap.Transactions)).Msg("Ledger exported")
	return &ExportResult{Key: key, URL: url, Snapshot: snap}, nil
}

// Import replaces every collection with the snapshot's content and rebuilds
// the aggregates from the imported transaction log.
func (s *ExportService) Import(ctx context.Context, snap *domain.Snapshot) (*ImportSummary, error) {
	if snap == nil || snap.Version != domain.SnapshotVersion {
		return nil, domain.ErrUnsupportedVersion
	}

	keys := append(append([]string{}, domain.CollectionKeys...),
		domain.KeyUserSettings, domain.KeyUserProfile, domain.KeyFamilySharing, domain.KeyInitialized)

	err := s.store.Update(ctx, keys, func(tx *storage.Tx) error {
		if err := storage.Write(tx, domain.KeyTransactions, nonNil(snap.Transactions)); err != nil {
			return err
		}
		if err := storage.Write(tx, domain.KeyCategories, nonNil(snap.Categories)); err != nil {
			return err
		}
		if err := storage.Write(tx, domain.KeyBudgets, nonNil(snap.Budgets)); err != nil {
			return err
		}
		if err := storage.Write(tx, domain.KeyMonthlyData, nonNil(snap.MonthlyData)); err != nil {
			return err
		}

		settings := domain.DefaultUserSettings()
		if snap.Settings != nil {
			settings = *snap.Settings
		}
		if err := storage.WriteObject(tx, domain.KeyUserSettings, settings); err != nil {
			return err
		}
		if err := replaceObject(tx, domain.KeyUserProfile, snap.Profile); err != nil {
			return err
		}
		if err := replaceObject(tx, domain.KeyFamilySharing, snap.Family); err != nil {
			return err
		}
		return storage.WriteObject(tx, domain.KeyInitialized, true)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to import snapshot")
		return nil, err
	}

	if err := s.ledger.RebuildAggregates(ctx); err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		Transactions: len(snap.Transactions),
		Categories:   len(snap.Categories),
		Budgets:      len(snap.Budgets),
	}
	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeImported, events.EntityTypeLedger, summary))
	return summary, nil
}

// replaceObject writes value under key, or removes the key when value is nil
func replaceObject[T any](tx *storage.Tx, key string, value *T) error {
	if value == nil {
		return storage.Remove(tx, key)
	}
	return storage.WriteObject(tx, key, *value)
}

// ImportFromBlob loads a snapshot stored under key and imports it
func (s *ExportService) ImportFromBlob(ctx context.Context, key string) (*ImportSummary, error) {
	if s.blobs == nil {
		return nil, ErrBlobStoreNotConfigured
	}

	r, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var snap domain.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", domain.ErrInvalidInput)
	}
	return s.Import(ctx, &snap)
}

// Reset wipes every key. With reseed the example data is written again.
func (s *ExportService) Reset(ctx context.Context, reseed bool) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return err
	}
	if reseed {
		if _, err := s.store.Initialize(ctx); err != nil {
			return err
		}
	}

	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeReset, events.EntityTypeLedger, map[string]bool{"reseeded": reseed}))
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
