package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/collection"
)

// Queue часть локального хранилища, нужная проходу синхронизации
type Queue interface {
	KeyValue
	ListUnsynced(ctx context.Context, types ...collection.RecordType) ([]collection.QueuedRecord, error)
	Delete(ctx context.Context, ids ...string) error
}

type Uploader interface {
	Upload(ctx context.Context, unit collection.Unit) error
}

type Network interface {
	Online() bool
}

// Flusher отправляет отложенные заявки перед выгрузкой
type Flusher interface {
	Flush(ctx context.Context) error
}

// SyncService выгружает очередь на бэкенд
type SyncService struct {
	queue    Queue
	uploader Uploader
	identity FingerprintSource
	network  Network
	lock     *SyncLock
	pending  Flusher
	bus      *Bus
	log      *slog.Logger

	mu       sync.RWMutex
	lastSync time.Time
	last     collection.PassResult
}

func NewSyncService(queue Queue, uploader Uploader, identity FingerprintSource, network Network,
	lock *SyncLock, pending Flusher, bus *Bus, log *slog.Logger) *SyncService {
	return &SyncService{
		queue:    queue,
		uploader: uploader,
		identity: identity,
		network:  network,
		lock:     lock,
		pending:  pending,
		bus:      bus,
		log:      log.With(slog.String("component", "sync")),
	}
}

// Sync выполняет один проход: каждая единица выгружается один раз,
// успешно принятые и дубликаты удаляются из очереди, остальные остаются.
func (s *SyncService) Sync(ctx context.Context) (collection.PassResult, error) {
	if !s.network.Online() {
		s.log.Debug("offline, sync skipped")
		return collection.PassResult{Offline: true}, nil
	}

	if !s.lock.TryAcquire() {
		s.log.Debug("sync already in progress")
		return collection.PassResult{Skipped: true}, nil
	}
	defer s.lock.Release()

	auth, err := LoadAuthState(ctx, s.queue)
	if err != nil {
		return collection.PassResult{}, fmt.Errorf("load authorization: %w", err)
	}
	if auth.Denied() {
		s.log.Warn("device not authorized, uploads paused")
		return collection.PassResult{}, collection.ErrAuthorizationDenied
	}

	if s.pending != nil {
		if err := s.pending.Flush(ctx); err != nil {
			s.log.Warn("pending registration flush failed", slog.Any("error", err))
		}
	}

	records, err := s.queue.ListUnsynced(ctx)
	if err != nil {
		return collection.PassResult{}, fmt.Errorf("list queue: %w", err)
	}
	if len(records) == 0 {
		s.finish(collection.PassResult{})
		return collection.PassResult{}, nil
	}

	if err := s.attachFingerprint(ctx, records); err != nil {
		return collection.PassResult{}, err
	}

	units := collection.Partition(records)
	s.bus.Publish(EventSyncStarted, len(units))
	start := time.Now()

	var result collection.PassResult
	for _, unit := range units {
		if ctx.Err() != nil {
			s.log.Info("sync cancelled", slog.Int("remaining_records", remaining(units, result)))
			break
		}
		s.process(ctx, unit, &result)
	}

	s.log.Info("sync completed",
		slog.Int("synced", result.Synced),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", time.Since(start)),
	)
	s.finish(result)
	s.bus.Publish(EventSyncCompleted, result)

	return result, ctx.Err()
}

// LastResult итог последнего завершенного прохода
func (s *SyncService) LastResult() (collection.PassResult, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.lastSync
}

func (s *SyncService) process(ctx context.Context, unit collection.Unit, result *collection.PassResult) {
	// начатая выгрузка и удаление завершаются даже после отмены прохода
	uctx := context.WithoutCancel(ctx)

	err := s.uploader.Upload(uctx, unit)
	switch {
	case err == nil:
	case collection.IsDuplicateError(err):
		s.log.Info("unit already on server, removing from queue",
			slog.String("type", string(unit.Type())),
			slog.Int("records", unit.Len()),
		)
	default:
		result.Failed += unit.Len()
		s.log.Warn("unit upload failed",
			slog.String("type", string(unit.Type())),
			slog.Int("records", unit.Len()),
			slog.Any("error", err),
		)
		return
	}

	if err := s.queue.Delete(uctx, unit.RecordIDs()...); err != nil {
		result.Failed += unit.Len()
		s.log.Error("uploaded unit not removed from queue", slog.Any("error", err))
		return
	}
	result.Synced += unit.Len()
}

func (s *SyncService) attachFingerprint(ctx context.Context, records []collection.QueuedRecord) error {
	var fp string
	for i := range records {
		if records[i].Payload.DeviceFingerprint != "" {
			continue
		}
		if fp == "" {
			var err error
			if fp, err = s.identity.GetFingerprint(ctx); err != nil {
				return fmt.Errorf("fingerprint: %w", err)
			}
		}
		records[i].Payload.DeviceFingerprint = fp
	}
	return nil
}

func (s *SyncService) finish(result collection.PassResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = result
	s.lastSync = time.Now()
}

func remaining(units []collection.Unit, result collection.PassResult) int {
	total := 0
	for _, u := range units {
		total += u.Len()
	}
	return total - result.Synced - result.Failed
}

