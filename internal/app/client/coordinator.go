package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/collection"
)

const defaultSyncInterval = 5 * time.Minute

// Connectivity текущее состояние сети, сообщаемое оболочкой устройства
type Connectivity struct {
	bus *Bus

	mu       sync.Mutex
	online   bool
	next     int
	handlers map[int]func(online bool)
}

func NewConnectivity(bus *Bus, online bool) *Connectivity {
	return &Connectivity{
		bus:      bus,
		online:   online,
		handlers: make(map[int]func(bool)),
	}
}

func (c *Connectivity) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// SetOnline меняет состояние; обработчики вызываются только при смене значения
func (c *Connectivity) SetOnline(online bool) {
	c.mu.Lock()
	if c.online == online {
		c.mu.Unlock()
		return
	}
	c.online = online
	handlers := make([]func(bool), 0, len(c.handlers))
	for i := 0; i < c.next; i++ {
		if h, ok := c.handlers[i]; ok {
			handlers = append(handlers, h)
		}
	}
	c.mu.Unlock()

	c.bus.Publish(EventOnlineChanged, online)
	for _, h := range handlers {
		h(online)
	}
}

// RegisterOnlineHandler подписывает на смену состояния и возвращает функцию отписки
func (c *Connectivity) RegisterOnlineHandler(fn func(online bool)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.next
	c.next++
	c.handlers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers, id)
	}
}

type Syncer interface {
	Sync(ctx context.Context) (collection.PassResult, error)
}

// Coordinator сводит триггеры синхронизации (восстановление сети, таймер, ручной запуск)
// к вызовам Syncer.Sync. Параллельные проходы отсекает SyncLock внутри Sync.
type Coordinator struct {
	conn     *Connectivity
	syncer   Syncer
	interval time.Duration
	trigger  chan struct{}
	log      *slog.Logger
}

func NewCoordinator(conn *Connectivity, syncer Syncer, interval time.Duration, log *slog.Logger) *Coordinator {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &Coordinator{
		conn:     conn,
		syncer:   syncer,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		log:      log.With(slog.String("component", "coordinator")),
	}
}

// Trigger запрашивает внеочередной проход; повторные запросы до его начала схлопываются
func (c *Coordinator) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run обслуживает триггеры до отмены контекста
func (c *Coordinator) Run(ctx context.Context) {
	unregister := c.conn.RegisterOnlineHandler(func(online bool) {
		if online {
			c.log.Info("connectivity regained, scheduling sync")
			c.Trigger()
		}
	})
	defer unregister()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx, "timer")
		case <-c.trigger:
			c.run(ctx, "trigger")
		}
	}
}

func (c *Coordinator) run(ctx context.Context, reason string) {
	result, err := c.syncer.Sync(ctx)
	if err != nil {
		c.log.Warn("sync pass ended with error", slog.String("reason", reason), slog.Any("error", err))
		return
	}
	c.log.Debug("sync pass finished",
		slog.String("reason", reason),
		slog.Int("synced", result.Synced),
		slog.Int("failed", result.Failed),
		slog.Bool("skipped", result.Skipped),
		slog.Bool("offline", result.Offline),
	)
}
