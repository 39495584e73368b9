package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	clientConfig "milkcollect/internal/app/client/config"
	"milkcollect/internal/app/client/storage"
	"milkcollect/internal/app/server/api"
	"milkcollect/internal/app/server/api/http/middleware/admin"
	serverConfig "milkcollect/internal/app/server/config"
	"milkcollect/internal/domain/collection"
	"milkcollect/internal/infrastructure/storage/memory"
)

const adminToken = "admin-secret"

func newBackend(t *testing.T) (*httptest.Server, *memory.SaleRepository) {
	t.Helper()

	cfg := &serverConfig.Config{Env: serverConfig.EnvLocal}
	cfg.Server.APIVersion = "2.0.0"
	cfg.Server.AdminToken = adminToken

	sales := memory.NewSaleRepository()
	srv := httptest.NewServer(api.New(cfg, api.Repositories{
		Devices: memory.NewDeviceRepository(),
		Sales:   sales,
	}, slog.Default()))
	t.Cleanup(srv.Close)
	return srv, sales
}

func testConfig(t *testing.T, serverURL string) *clientConfig.Config {
	return &clientConfig.Config{
		Env:            "local",
		ServerAddress:  serverURL,
		ConfigDir:      t.TempDir(),
		SyncInterval:   300,
		HealthInterval: 30,
		CheckTimeout:   5,
		ReceiptLimit:   100,
	}
}

func newTestApp(t *testing.T, serverURL string) *App {
	t.Helper()

	app, err := New(context.Background(), testConfig(t, serverURL), slog.Default(),
		WithStorage(storage.NewMemory()),
		WithBackend(NewHTTPClient(serverURL, slog.Default())),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func approve(t *testing.T, serverURL, fingerprint string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, serverURL+"/api/devices/"+fingerprint+"/approve",
		bytes.NewBufferString(`{"company_name":"Highland Dairy Coop"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(admin.HeaderName, adminToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEndToEnd_CaptureRegisterApproveSync(t *testing.T) {
	ctx := context.Background()
	srv, sales := newBackend(t)
	app := newTestApp(t, srv.URL)

	status, err := app.CheckBackendVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, collection.VersionOK, status)

	_, err = app.Capture(ctx, collection.TypeMilkCollection, collection.Payload{FarmerID: "F001", Quantity: 12.5, Session: "AM"})
	require.NoError(t, err)
	for _, item := range []string{"FEED-1", "MINERAL-2"} {
		_, err = app.Capture(ctx, collection.TypeStoreSale, collection.Payload{
			FarmerID: "F002", ItemCode: item, Quantity: 1, Price: 150, UploadRef: "BA050000031",
			Photo: []byte("receipt-photo"),
		})
		require.NoError(t, err)
	}
	_, err = app.Capture(ctx, collection.TypeAISale, collection.Payload{FarmerID: "F003", ItemCode: "AI-BULL-7", Quantity: 1, Price: 900})
	require.NoError(t, err)

	queued, err := app.RegisterDevice(ctx, "clerk-1", "field tablet")
	require.NoError(t, err)
	assert.False(t, queued)

	// зарегистрировано, но не одобрено: явный отказ, очередь не трогается
	auth, err := app.CheckAuthorization(ctx)
	require.NoError(t, err)
	assert.True(t, auth.Denied())

	_, err = app.SyncNow(ctx)
	require.ErrorIs(t, err, collection.ErrAuthorizationDenied)
	pending, err := app.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 4)

	fp, err := app.Fingerprint(ctx)
	require.NoError(t, err)
	approve(t, srv.URL, fp)

	auth, err = app.CheckAuthorization(ctx)
	require.NoError(t, err)
	assert.True(t, auth.Authorized)
	assert.Equal(t, "Highland Dairy Coop", auth.CompanyName)

	result, err := app.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, collection.PassResult{Synced: 4}, result)

	pending, err = app.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	collections, saleCount := sales.Counts()
	assert.Equal(t, 1, collections)
	assert.Equal(t, 3, saleCount)
}

func TestEndToEnd_ResentTransactionIsTreatedAsSynced(t *testing.T) {
	ctx := context.Background()
	srv, sales := newBackend(t)
	app := newTestApp(t, srv.URL)

	fp, err := app.Fingerprint(ctx)
	require.NoError(t, err)
	_, err = app.RegisterDevice(ctx, "", "")
	require.NoError(t, err)
	approve(t, srv.URL, fp)

	payload := collection.Payload{FarmerID: "F001", Quantity: 8, TransactionRef: "TXN-FIXED-1"}

	_, err = app.Capture(ctx, collection.TypeMilkCollection, payload)
	require.NoError(t, err)
	result, err := app.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)

	// тот же номер транзакции снова попадает в очередь (повтор после обрыва связи)
	_, err = app.Capture(ctx, collection.TypeMilkCollection, payload)
	require.NoError(t, err)
	result, err = app.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, collection.PassResult{Synced: 1}, result)

	pending, err := app.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	collections, _ := sales.Counts()
	assert.Equal(t, 1, collections)
}

func TestEndToEnd_BackendDownKeepsQueue(t *testing.T) {
	ctx := context.Background()
	srv, _ := newBackend(t)
	url := srv.URL
	srv.Close()

	app := newTestApp(t, url)

	_, err := app.Capture(ctx, collection.TypeMilkCollection, collection.Payload{FarmerID: "F001", Quantity: 3})
	require.NoError(t, err)

	queued, err := app.RegisterDevice(ctx, "clerk-1", "tablet")
	require.NoError(t, err)
	assert.True(t, queued)

	result, err := app.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, collection.PassResult{Failed: 1}, result)

	st, err := app.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Pending)
	assert.Zero(t, st.Quarantined)
	assert.True(t, st.Online)
	assert.False(t, st.Authorization.Known)
	require.NotNil(t, st.LastSync)
}

func TestEndToEnd_OfflineCapture(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, "http://127.0.0.1:1")
	app.SetOnline(false)

	rec, err := app.Capture(ctx, collection.TypeStoreSale, collection.Payload{FarmerID: "F1", ItemCode: "X", Quantity: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Contains(t, rec.Payload.TransactionRef, "TXN-")
	assert.False(t, rec.Synced)

	_, err = app.Capture(ctx, collection.TypeStoreSale, collection.Payload{FarmerID: "F1", Quantity: 2})
	assert.ErrorIs(t, err, collection.ErrInvalidRecord)

	result, err := app.SyncNow(ctx)
	require.NoError(t, err)
	assert.True(t, result.Offline)

	pending, err := app.Pending(ctx, collection.TypeStoreSale)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
