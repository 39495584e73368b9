package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"milkcollect/internal/domain/collection"
)

// Memory хранилище в памяти процесса. Используется, когда SQLite недоступен, и в тестах.
type Memory struct {
	readiness

	mu       sync.Mutex
	seq      int64
	records  map[string]memRecord
	cache    map[collection.CacheKind]map[string][]byte
	values   map[string]string
	receipts []collection.PrintedReceipt
}

type memRecord struct {
	seq int64
	rec collection.QueuedRecord
}

func NewMemory() *Memory {
	return &Memory{
		readiness: readiness{ch: make(chan struct{})},
		records:   make(map[string]memRecord),
		cache:     make(map[collection.CacheKind]map[string][]byte),
		values:    make(map[string]string),
	}
}

func (m *Memory) Open(_ context.Context) error {
	m.markReady()
	return nil
}

func (m *Memory) Save(_ context.Context, rec collection.QueuedRecord) (string, error) {
	if err := m.check(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Synced = false
	m.seq++
	m.records[rec.ID] = memRecord{seq: m.seq, rec: rec}

	return rec.ID, nil
}

func (m *Memory) ListUnsynced(_ context.Context, types ...collection.RecordType) ([]collection.QueuedRecord, error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]memRecord, 0, len(m.records))
	for _, r := range m.records {
		if hasType(types, r.rec.Type) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]collection.QueuedRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.rec)
	}
	return out, nil
}

// Quarantined всегда 0: записи хранятся уже декодированными
func (m *Memory) Quarantined(_ context.Context) (int, error) {
	if err := m.check(); err != nil {
		return 0, err
	}
	return 0, nil
}

func (m *Memory) Delete(_ context.Context, ids ...string) error {
	if err := m.check(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

func (m *Memory) ListCached(_ context.Context, kind collection.CacheKind) ([]collection.CacheEntry, error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.cache[kind]
	keys := make([]string, 0, len(bucket))
	for k := range bucket {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]collection.CacheEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, collection.CacheEntry{Key: k, Data: bucket[k]})
	}
	return out, nil
}

func (m *Memory) SaveCached(_ context.Context, kind collection.CacheKind, entries []collection.CacheEntry) error {
	if err := m.check(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.cache[kind]
	if !ok {
		bucket = make(map[string][]byte)
		m.cache[kind] = bucket
	}
	for _, e := range entries {
		bucket[e.Key] = e.Data
	}
	return nil
}

func (m *Memory) GetValue(_ context.Context, key string) (string, bool, error) {
	if err := m.check(); err != nil {
		return "", false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) SetValue(_ context.Context, key, value string) error {
	if err := m.check(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *Memory) DeleteValue(_ context.Context, key string) error {
	if err := m.check(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *Memory) SaveReceipt(_ context.Context, r collection.PrintedReceipt) error {
	if err := m.check(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.receipts = append([]collection.PrintedReceipt{r}, m.receipts...)
	return nil
}

func (m *Memory) ListReceipts(_ context.Context) ([]collection.PrintedReceipt, error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]collection.PrintedReceipt, len(m.receipts))
	copy(out, m.receipts)
	return out, nil
}

func (m *Memory) TrimReceipts(_ context.Context, keep int) error {
	if err := m.check(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if keep >= 0 && len(m.receipts) > keep {
		m.receipts = m.receipts[:keep]
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
