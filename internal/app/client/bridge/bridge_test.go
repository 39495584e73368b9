package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"milkcollect/internal/app/client"
	"milkcollect/internal/app/client/config"
	"milkcollect/internal/app/client/storage"
	"milkcollect/internal/domain/collection"
)

func newBridge(t *testing.T, printer client.Printer) (*httptest.Server, *client.App) {
	t.Helper()

	cfg := &config.Config{
		ServerAddress:  "127.0.0.1:1",
		ConfigDir:      t.TempDir(),
		SyncInterval:   300,
		HealthInterval: 30,
		CheckTimeout:   1,
		ReceiptLimit:   10,
	}
	app, err := client.New(context.Background(), cfg, slog.Default(),
		client.WithStorage(storage.NewMemory()),
		client.WithPrinter(printer),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	app.SetOnline(false)

	srv := httptest.NewServer(New(app, slog.Default()).Routes())
	t.Cleanup(srv.Close)
	return srv, app
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestBridge_CaptureAndStatus(t *testing.T) {
	srv, _ := newBridge(t, nil)

	resp := postJSON(t, srv.URL+"/local/captures",
		`{"type":"milk-collection","payload":{"farmer_id":"F001","quantity":12.5}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rec collection.QueuedRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Synced)

	resp = postJSON(t, srv.URL+"/local/captures", `{"type":"milk-collection","payload":{"farmer_id":"F001","quantity":0}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Message, "quantity")

	resp = postJSON(t, srv.URL+"/local/captures", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	statusResp, err := http.Get(srv.URL + "/local/status")
	require.NoError(t, err)
	defer statusResp.Body.Close()
	require.Equal(t, http.StatusOK, statusResp.StatusCode)

	var st client.Status
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&st))
	assert.Equal(t, 1, st.Pending)
	assert.False(t, st.Online)
}

func TestBridge_SyncAndOnline(t *testing.T) {
	srv, app := newBridge(t, nil)

	resp := postJSON(t, srv.URL+"/local/sync", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result collection.PassResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Offline)

	resp = postJSON(t, srv.URL+"/local/online", `{"online":true}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	st, err := app.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Online)

	require.NoError(t, app.Store().SetValue(context.Background(), client.AuthAuthorizedKey, "0"))
	resp = postJSON(t, srv.URL+"/local/sync", ``)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBridge_PrintFallsBackToBrowser(t *testing.T) {
	srv, _ := newBridge(t, nil)

	resp := postJSON(t, srv.URL+"/local/receipts/print", `{"farmer_id":"F1","type":"milk-collection","references":["TXN-1"]}`)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, client.NoPrinterMessage, body.Message)
	assert.Equal(t, "browser", body.Fallback)
}

func TestBridge_PrintAndListReceipts(t *testing.T) {
	var paper bytes.Buffer
	srv, _ := newBridge(t, client.TextPrinter{W: &paper})

	resp := postJSON(t, srv.URL+"/local/receipts/print", `{"farmer_id":"F1","type":"milk-collection","references":["TXN-1"]}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, paper.String(), "F1")

	listResp, err := http.Get(srv.URL + "/local/receipts")
	require.NoError(t, err)
	defer listResp.Body.Close()

	var receipts []collection.PrintedReceipt
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&receipts))
	require.Len(t, receipts, 1)
	assert.Equal(t, []string{"TXN-1"}, receipts[0].Receipt.References)
}

func TestBridge_EventStream(t *testing.T) {
	srv, app := newBridge(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/local/events"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// подписка происходит после апгрейда соединения, поэтому публикуем до получения события
	received := make(chan client.Event, 1)
	go func() {
		var ev client.Event
		if err := wsjson.Read(ctx, conn, &ev); err == nil {
			received <- ev
		}
	}()

	require.Eventually(t, func() bool {
		app.SetOnline(true)
		app.SetOnline(false)
		select {
		case ev := <-received:
			assert.Equal(t, client.EventOnlineChanged, ev.Kind)
			return true
		default:
			return false
		}
	}, 3*time.Second, 50*time.Millisecond)
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestBridge_ReferenceRoundTrip(t *testing.T) {
	srv, app := newBridge(t, nil)

	resp := doJSON(t, http.MethodPut, srv.URL+"/local/reference/farmers",
		`[{"id":"F001","name":"Wanjiru","route":"R1"},{"id":"F002","name":"Otieno","route":"R2"}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var saved struct {
		Saved int `json:"saved"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, 2, saved.Saved)

	// повторная загрузка перезаписывает по коду фермера
	resp = doJSON(t, http.MethodPut, srv.URL+"/local/reference/farmers", `[{"id":"F001","name":"Wanjiru K.","route":"R1"}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/local/reference/farmers", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var farmers []collection.Farmer
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&farmers))
	require.Len(t, farmers, 2)
	assert.Equal(t, "Wanjiru K.", farmers[0].Name)

	cached, err := client.LoadReference[collection.Farmer](context.Background(), app.Store(), collection.KindFarmers)
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	resp = doJSON(t, http.MethodGet, srv.URL+"/local/reference/products", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []collection.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Empty(t, products)

	resp = doJSON(t, http.MethodPut, srv.URL+"/local/reference/routes", `[{"code":"","name":"no code"}]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/local/reference/routes", `{"code":"R1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/local/reference/cows", ``)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestBridge_PublishesOperations(t *testing.T) {
	srv, _ := newBridge(t, nil)

	resp, err := http.Get(srv.URL + "/openapi.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	for _, path := range []string{
		"/local/captures",
		"/local/sync",
		"/local/online",
		"/local/status",
		"/local/receipts",
		"/local/receipts/print",
		"/local/reference/{kind}",
	} {
		assert.Contains(t, doc.Paths, path)
	}
	assert.NotContains(t, doc.Paths, "/local/events")
}
