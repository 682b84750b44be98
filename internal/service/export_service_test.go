package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/blob"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExportService(t *testing.T) (*ExportService, *storage.Adapter, *blob.LocalStore, *events.RecordingPublisher) {
	t.Helper()
	store := newTestStore()
	blobs, err := blob.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)
	publisher := &events.RecordingPublisher{}
	svc := NewExportService(store, blobs, NewLedgerService(store, nil), publisher)
	svc.now = func() time.Time { return time.Date(2025, time.June, 1, 10, 30, 0, 0, time.UTC) }
	return svc, store, blobs, publisher
}

func TestExport_WritesSnapshotToBlob(t *testing.T) {
	ctx := context.Background()
	svc, store, blobs, _ := newTestExportService(t)
	_, err := store.Initialize(ctx)
	require.NoError(t, err)

	result, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "exports/pocketbook-20250601-103000.json", result.Key)
	assert.Equal(t, "/files/exports/pocketbook-20250601-103000.json", result.URL)

	r, err := blobs.Get(ctx, result.Key)
	require.NoError(t, err)
	defer r.Close()

	var snap domain.Snapshot
	require.NoError(t, json.NewDecoder(r).Decode(&snap))
	assert.Equal(t, domain.SnapshotVersion, snap.Version)
	assert.Len(t, snap.Transactions, 5)
	assert.Len(t, snap.Categories, 12)
	assert.Len(t, snap.MonthlyData, 1)
	require.NotNil(t, snap.Settings)
	assert.Equal(t, "CNY", snap.Settings.Currency)
	assert.Nil(t, snap.Profile)
}

func TestSnapshot_ReadFailureFails(t *testing.T) {
	failing := testutil.NewFailingStore()
	failing.FailGet(domain.KeyBudgets)
	store := storage.NewAdapter(failing)
	svc := NewExportService(store, nil, NewLedgerService(store, nil), nil)

	_, err := svc.Snapshot(context.Background())

	assert.ErrorIs(t, err, testutil.ErrInjected)
}

func TestExport_WithoutBlobStore(t *testing.T) {
	store := newTestStore()
	svc := NewExportService(store, nil, NewLedgerService(store, nil), nil)

	_, err := svc.Export(context.Background())

	assert.ErrorIs(t, err, ErrBlobStoreNotConfigured)
}

func TestImport_ReplacesDataAndRebuilds(t *testing.T) {
	ctx := context.Background()
	svc, store, _, publisher := newTestExportService(t)
	_, err := store.Initialize(ctx)
	require.NoError(t, err)

	snap := &domain.Snapshot{
		Version:    domain.SnapshotVersion,
		Categories: []domain.Category{{ID: "rent", Name: "房租", Type: domain.CategoryTypeExpense}},
		Transactions: []domain.Transaction{
			{ID: "a", Title: "房租", Amount: decimal.NewFromInt(-3000), Date: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), CategoryID: "rent"},
			{ID: "b", Title: "工资", Amount: decimal.NewFromInt(9000), Date: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), CategoryID: "salary"},
		},
		Budgets: []domain.Budget{
			{ID: "b1", CategoryID: "rent", Amount: decimal.NewFromInt(3500), Spent: decimal.NewFromInt(1), Period: domain.BudgetPeriodMonthly, Year: 2025, Month: intPtr(2)},
		},
		MonthlyData: []domain.MonthlyData{{Month: 0, Year: 1999, Income: decimal.NewFromInt(5)}},
	}

	summary, err := svc.Import(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Transactions)

	assert.Len(t, store.Transactions(ctx), 2)
	assert.Len(t, store.Categories(ctx), 1)

	months := store.MonthlyData(ctx)
	require.Len(t, months, 1)
	assert.Equal(t, 2, months[0].Month)
	assert.Equal(t, "9000", months[0].Income.String())
	assert.Equal(t, "3000", months[0].Expenses.String())
	assert.Equal(t, "3000", store.Budgets(ctx)[0].Spent.String())

	settings, err := storage.GetObject[domain.UserSettings](ctx, store, domain.KeyUserSettings)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultUserSettings(), *settings)

	seeded, err := store.Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	assert.Contains(t, publisher.Types(), "ledger.imported")
}

func TestImport_RejectsUnknownVersion(t *testing.T) {
	svc, _, _, _ := newTestExportService(t)

	_, err := svc.Import(context.Background(), &domain.Snapshot{Version: 99})
	assert.ErrorIs(t, err, domain.ErrUnsupportedVersion)

	_, err = svc.Import(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedVersion)
}

func TestExportImport_RoundTripThroughBlob(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestExportService(t)
	_, err := store.Initialize(ctx)
	require.NoError(t, err)

	result, err := svc.Export(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, false))
	assert.Empty(t, store.Transactions(ctx))

	_, err = svc.ImportFromBlob(ctx, result.Key)
	require.NoError(t, err)

	assert.Len(t, store.Transactions(ctx), 5)
	assert.Len(t, store.Categories(ctx), 12)
}

func TestImportFromBlob_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _, blobs, _ := newTestExportService(t)

	_, err := svc.ImportFromBlob(ctx, "exports/missing.json")
	assert.ErrorIs(t, err, blob.ErrObjectNotFound)

	require.NoError(t, blobs.Put(ctx, "exports/bad.json", strings.NewReader("{not json"), "application/json"))
	_, err = svc.ImportFromBlob(ctx, "exports/bad.json")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	svc, store, _, publisher := newTestExportService(t)
	_, err := store.Initialize(ctx)
	require.NoError(t, err)
	ledger := NewLedgerService(store, nil)
	record(t, ledger, "额外", -1, day(2025, time.May, 1), "food")

	require.NoError(t, svc.Reset(ctx, true))

	assert.Len(t, store.Transactions(ctx), 5)
	assert.Equal(t, []string{"ledger.reset"}, publisher.Types())
}

func TestImport_RemovesProfileAndFamilyAbsentFromSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestExportService(t)
	profiles := NewProfileService(store, nil)

	_, err := profiles.UpdateProfile(ctx, UpdateProfileInput{Name: strPtr("Local")})
	require.NoError(t, err)
	_, err = profiles.InviteMember(ctx, InviteMemberInput{Email: "guest@example.com", Name: "Guest"})
	require.NoError(t, err)

	_, err = svc.Import(ctx, &domain.Snapshot{Version: domain.SnapshotVersion})
	require.NoError(t, err)

	_, err = storage.GetObject[domain.FamilySharing](ctx, store, domain.KeyFamilySharing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = storage.GetObject[domain.UserProfile](ctx, store, domain.KeyUserProfile)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImport_KeepsProfileAndFamilyFromSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestExportService(t)

	snap := &domain.Snapshot{
		Version: domain.SnapshotVersion,
		Profile: &domain.UserProfile{ID: "u_remote", Name: "Remote"},
		Family: &domain.FamilySharing{
			ID:         "f_remote",
			InviteCode: "SHARE-AAAA-BBBB-CCCC",
			Members:    []domain.FamilyMember{{ID: "m1", Name: "Remote", Role: domain.MemberRoleAdmin}},
		},
	}
	_, err := svc.Import(ctx, snap)
	require.NoError(t, err)

	profile, err := storage.GetObject[domain.UserProfile](ctx, store, domain.KeyUserProfile)
	require.NoError(t, err)
	assert.Equal(t, "u_remote", profile.ID)

	family, err := storage.GetObject[domain.FamilySharing](ctx, store, domain.KeyFamilySharing)
	require.NoError(t, err)
	assert.Equal(t, "SHARE-AAAA-BBBB-CCCC", family.InviteCode)
	assert.Len(t, family.Members, 1)
}
