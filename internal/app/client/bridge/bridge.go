// POST /local/captures             # Поставить запись в очередь
// POST /local/sync                 # Ручной проход синхронизации
// POST /local/online               # Сообщить о смене состояния сети
// GET  /local/status               # Сводка: очередь, сеть, авторизация, бэкенд
// GET  /local/receipts             # Кеш квитанций для повторной печати
// POST /local/receipts/print       # Печать квитанции
// GET  /local/reference/{kind}     # Справочник: farmers, routes, products
// PUT  /local/reference/{kind}     # Замена справочника
// GET  /local/events               # WebSocket с событиями шины

package bridge

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"

	"milkcollect/internal/app/client"
	"milkcollect/internal/domain/collection"
)

const (
	apiVersion   = "1.0.0"
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
)

// Core операции клиента, доступные оболочке устройства
type Core interface {
	Capture(ctx context.Context, typ collection.RecordType, p collection.Payload) (collection.QueuedRecord, error)
	SyncNow(ctx context.Context) (collection.PassResult, error)
	SetOnline(online bool)
	Status(ctx context.Context) (client.Status, error)
	Reference(ctx context.Context, kind collection.CacheKind) (any, error)
	SaveReference(ctx context.Context, kind collection.CacheKind, raw []byte) (int, error)
	Receipts() *client.Receipts
	Bus() *client.Bus
}

type Bridge struct {
	core Core
	log  *slog.Logger
}

func New(core Core, log *slog.Logger) *Bridge {
	return &Bridge{
		core: core,
		log:  log.With(slog.String("component", "bridge")),
	}
}

// Routes локальный API для web-view оболочки: REST через huma, события через WebSocket
func (b *Bridge) Routes() *chi.Mux {
	mux := chi.NewMux()
	mux.Use(chimw.Recoverer)

	api := humachi.New(mux, huma.DefaultConfig("Milk Collection Local API", apiVersion))
	b.SetupRoutes(api)

	mux.Get("/local/events", b.events)
	return mux
}

func (b *Bridge) SetupRoutes(api huma.API) {
	huma.Register(api, b.captureOp(), b.capture)
	huma.Register(api, b.syncOp(), b.sync)
	huma.Register(api, b.onlineOp(), b.online)
	huma.Register(api, b.statusOp(), b.status)
	huma.Register(api, b.receiptsOp(), b.receipts)
	huma.Register(api, b.printOp(), b.print)
	huma.Register(api, b.referenceOp(), b.reference)
	huma.Register(api, b.saveReferenceOp(), b.saveReference)
}

// events транслирует события шины в WebSocket. Медленный клиент теряет события,
// но не задерживает публикацию.
func (b *Bridge) events(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		b.log.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	queue := make(chan client.Event, eventBuffer)
	unsubscribe := b.core.Bus().Subscribe(func(ev client.Event) {
		select {
		case queue <- ev:
		default:
			b.log.Debug("event dropped for slow websocket client", slog.String("kind", string(ev.Kind)))
		}
	})
	defer unsubscribe()

	// CloseRead отменяет контекст, когда клиент закрывает соединение
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-queue:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, ev)
			cancel()
			if err != nil {
				b.log.Debug("websocket client gone", slog.Any("error", err))
				return
			}
		}
	}
}
