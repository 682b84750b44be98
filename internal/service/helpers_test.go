package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/kv"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestStore() *storage.Adapter {
	return storage.NewAdapter(kv.NewMemoryStore())
}

func newTestLedger(t *testing.T) (*LedgerService, *storage.Adapter, *events.RecordingPublisher) {
	t.Helper()
	store := newTestStore()
	publisher := &events.RecordingPublisher{}
	return NewLedgerService(store, publisher), store, publisher
}

func day(year int, month time.Month, d int) *time.Time {
	date := time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
	return &date
}

func intPtr(v int) *int {
	return &v
}

func seedCategories(t *testing.T, store *storage.Adapter) {
	t.Helper()
	require.NoError(t, storage.SaveCollection(context.Background(), store, domain.KeyCategories, storage.SeedCategories()))
}

func record(t *testing.T, svc *LedgerService, title string, amount int64, date *time.Time, category string) *domain.Transaction {
	t.Helper()
	tx, err := svc.RecordTransaction(context.Background(), TransactionInput{
		Title:      title,
		Amount:     decimal.NewFromInt(amount),
		Date:       date,
		CategoryID: category,
	})
	require.NoError(t, err)
	return tx
}
