package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/middleware"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/blob"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/kv"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/service"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	e         *echo.Echo
	store     *storage.Adapter
	publisher *events.RecordingPublisher
	blobs     *blob.LocalStore
}

// newTestServer wires every handler against an in-memory store seeded with
// the example data. withBlobs controls whether a blob store is configured.
func newTestServer(t *testing.T, withBlobs bool) *testServer {
	t.Helper()
	ctx := context.Background()

	store := storage.NewAdapter(kv.NewMemoryStore())
	_, err := store.Initialize(ctx)
	require.NoError(t, err)

	publisher := &events.RecordingPublisher{}

	// blobStore must stay a nil interface when blobs are disabled
	var blobStore blob.Store
	var local *blob.LocalStore
	if withBlobs {
		local, err = blob.NewLocalStore(t.TempDir(), "/files")
		require.NoError(t, err)
		blobStore = local
	}

	ledger := service.NewLedgerService(store, publisher)
	attachments := service.NewAttachmentService(blobStore, ledger)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ProblemErrorHandler
	RegisterRoutes(e, Handlers{
		Health:      NewHealthHandler(store, nil),
		Transaction: NewTransactionHandler(ledger, attachments),
		Month:       NewMonthHandler(ledger),
		Category:    NewCategoryHandler(service.NewCategoryService(store, publisher)),
		Budget:      NewBudgetHandler(service.NewBudgetService(store, publisher)),
		Settings:    NewSettingsHandler(service.NewSettingsService(store, publisher)),
		Profile:     NewProfileHandler(service.NewProfileService(store, publisher)),
		Data:        NewDataHandler(service.NewExportService(store, blobStore, ledger, publisher)),
	})

	return &testServer{e: e, store: store, publisher: publisher, blobs: local}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}
