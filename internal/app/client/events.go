package client

import (
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

// EventKind вид события, публикуемого для интерфейса
type EventKind string

const (
	EventSyncStarted          EventKind = "sync.started"
	EventSyncCompleted        EventKind = "sync.completed"
	EventOnlineChanged        EventKind = "online.changed"
	EventAuthorizationChanged EventKind = "authorization.changed"
	EventBackendStale         EventKind = "backend.stale"
	EventBackendDegraded      EventKind = "backend.degraded"
	EventBackendRecovered     EventKind = "backend.recovered"
	EventWeightReading        EventKind = "weight.reading"
	EventScaleDisconnected    EventKind = "weight.disconnected"
	EventCaptureQueued        EventKind = "capture.queued"
)

type Event struct {
	Kind EventKind `json:"kind"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// Bus синхронная шина событий. Подписчики вызываются в порядке подписки,
// события доставляются в порядке публикации.
type Bus struct {
	log *slog.Logger

	mu    sync.Mutex
	next  int
	subs  map[int]func(Event)
	order []int
	pubMu sync.Mutex
}

func NewBus(log *slog.Logger) *Bus {
	return &Bus{
		log:  log.With(slog.String("component", "events")),
		subs: make(map[int]func(Event)),
	}
}

// Subscribe регистрирует обработчик и возвращает функцию отписки
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.subs[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish доставляет событие всем текущим подписчикам
func (b *Bus) Publish(kind EventKind, data any) {
	ev := Event{Kind: kind, At: time.Now().UTC(), Data: data}

	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	for _, fn := range b.snapshot() {
		b.deliver(fn, ev)
	}
}

func (b *Bus) snapshot() []func(Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fns := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subs[id])
	}
	return fns
}

func (b *Bus) deliver(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event subscriber panicked", slog.String("kind", string(ev.Kind)), slog.Any("panic", r))
		}
	}()
	fn(ev)
}
