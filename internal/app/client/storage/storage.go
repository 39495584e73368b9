package storage

import (
	"context"
	"sync"
	"sync/atomic"

	"milkcollect/internal/domain/collection"
)

// Storage локальное хранилище очереди, справочников, настроек и кеша квитанций
type Storage interface {
	// Open инициализирует хранилище; до этого все операции возвращают ErrNotReady
	Open(ctx context.Context) error
	// Ready закрывается после успешного Open
	Ready() <-chan struct{}

	// Save ставит запись в очередь и возвращает присвоенный идентификатор
	Save(ctx context.Context, rec collection.QueuedRecord) (string, error)
	// ListUnsynced возвращает записи очереди в порядке создания, опционально по типам
	ListUnsynced(ctx context.Context, types ...collection.RecordType) ([]collection.QueuedRecord, error)
	// Delete удаляет записи одной транзакцией
	Delete(ctx context.Context, ids ...string) error
	// Quarantined число записей, изъятых из очереди из-за нечитаемого содержимого
	Quarantined(ctx context.Context) (int, error)

	ListCached(ctx context.Context, kind collection.CacheKind) ([]collection.CacheEntry, error)
	// SaveCached перезаписывает справочные данные по естественному ключу
	SaveCached(ctx context.Context, kind collection.CacheKind, entries []collection.CacheEntry) error

	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error

	SaveReceipt(ctx context.Context, r collection.PrintedReceipt) error
	// ListReceipts возвращает кеш квитанций, новые первыми
	ListReceipts(ctx context.Context) ([]collection.PrintedReceipt, error)
	// TrimReceipts оставляет только keep последних квитанций
	TrimReceipts(ctx context.Context, keep int) error

	Close() error
}

type readiness struct {
	once  sync.Once
	ch    chan struct{}
	ready atomic.Bool
}

func (r *readiness) markReady() {
	r.once.Do(func() {
		r.ready.Store(true)
		close(r.ch)
	})
}

func (r *readiness) Ready() <-chan struct{} {
	return r.ch
}

func (r *readiness) check() error {
	if !r.ready.Load() {
		return collection.ErrNotReady
	}
	return nil
}

func hasType(types []collection.RecordType, t collection.RecordType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}
