package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/collection"
)

const schema = `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_type ON records(type);
	CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at);

	CREATE TABLE IF NOT EXISTS reference_cache (
		kind TEXT NOT NULL,
		key TEXT NOT NULL,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (kind, key)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		printed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_receipts_printed ON receipts(printed_at);

	CREATE TABLE IF NOT EXISTS quarantine (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		reason TEXT NOT NULL,
		quarantined_at INTEGER NOT NULL
	);
`

// SQLite хранилище поверх mattn/go-sqlite3; payload записей кодируется msgpack
type SQLite struct {
	readiness

	path string
	db   *sql.DB
	log  *slog.Logger
}

func NewSQLite(path string, log *slog.Logger) *SQLite {
	return &SQLite{
		readiness: readiness{ch: make(chan struct{})},
		path:      path,
		log:       log.With(slog.String("component", "sqlite_storage")),
	}
}

func (s *SQLite) Open(ctx context.Context) error {
	db, err := sql.Open("sqlite3", s.path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return unavailable("ошибка открытия базы данных", err)
	}
	// все изменения идут через одно соединение
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return unavailable("база данных недоступна", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return unavailable("ошибка инициализации таблиц", err)
	}

	s.db = db
	s.markReady()
	s.log.Debug("storage opened", slog.String("path", s.path))
	return nil
}

func (s *SQLite) Save(ctx context.Context, rec collection.QueuedRecord) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	payload, err := msgpack.Marshal(&rec.Payload)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации записи: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, type, payload, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, string(rec.Type), payload, rec.CreatedAt.UnixNano())
	if err != nil {
		return "", unavailable("ошибка сохранения записи", err)
	}

	return rec.ID, nil
}

func (s *SQLite) ListUnsynced(ctx context.Context, types ...collection.RecordType) ([]collection.QueuedRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	query := "SELECT id, type, payload, created_at FROM records"
	args := make([]any, 0, len(types))
	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		query += " WHERE type IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY created_at, rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("ошибка выполнения запроса", err)
	}
	defer rows.Close()

	var (
		records []collection.QueuedRecord
		corrupt = map[string]string{}
	)
	for rows.Next() {
		var (
			rec       collection.QueuedRecord
			typ       string
			payload   []byte
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &typ, &payload, &createdAt); err != nil {
			return nil, unavailable("ошибка сканирования записи", err)
		}
		if err := msgpack.Unmarshal(payload, &rec.Payload); err != nil {
			s.log.Error("corrupted record payload", slog.String("id", rec.ID), slog.Any("error", err))
			corrupt[rec.ID] = err.Error()
			continue
		}
		rec.Type = collection.RecordType(typ)
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("ошибка чтения записей", err)
	}
	// единственное соединение занято курсором до закрытия rows
	rows.Close()

	if len(corrupt) > 0 {
		if err := s.quarantine(ctx, corrupt); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// quarantine переносит нечитаемые записи из очереди, сохраняя исходные байты
func (s *SQLite) quarantine(ctx context.Context, reasons map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("ошибка начала транзакции", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixNano()
	for id, reason := range reasons {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO quarantine (id, type, payload, created_at, reason, quarantined_at)
			SELECT id, type, payload, created_at, ?, ? FROM records WHERE id = ?
		`, reason, now, id)
		if err != nil {
			return unavailable("ошибка переноса записи в карантин", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id); err != nil {
			return unavailable("ошибка переноса записи в карантин", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("ошибка фиксации транзакции", err)
	}
	s.log.Warn("records quarantined", slog.Int("count", len(reasons)))
	return nil
}

func (s *SQLite) Quarantined(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quarantine").Scan(&n); err != nil {
		return 0, unavailable("ошибка чтения карантина", err)
	}
	return n, nil
}

func (s *SQLite) Delete(ctx context.Context, ids ...string) error {
	if err := s.check(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("ошибка начала транзакции", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id); err != nil {
			return unavailable("ошибка удаления записи", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("ошибка фиксации транзакции", err)
	}
	return nil
}

func (s *SQLite) ListCached(ctx context.Context, kind collection.CacheKind) ([]collection.CacheEntry, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, data FROM reference_cache WHERE kind = ? ORDER BY key", string(kind))
	if err != nil {
		return nil, unavailable("ошибка чтения справочника", err)
	}
	defer rows.Close()

	var entries []collection.CacheEntry
	for rows.Next() {
		var e collection.CacheEntry
		if err := rows.Scan(&e.Key, &e.Data); err != nil {
			return nil, unavailable("ошибка сканирования справочника", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("ошибка чтения справочника", err)
	}

	return entries, nil
}

func (s *SQLite) SaveCached(ctx context.Context, kind collection.CacheKind, entries []collection.CacheEntry) error {
	if err := s.check(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("ошибка начала транзакции", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixNano()
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reference_cache (kind, key, data, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (kind, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
		`, string(kind), e.Key, e.Data, now)
		if err != nil {
			return unavailable("ошибка сохранения справочника", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("ошибка фиксации транзакции", err)
	}
	return nil
}

func (s *SQLite) GetValue(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("ошибка чтения настройки", err)
	}
	return value, true, nil
}

func (s *SQLite) SetValue(ctx context.Context, key, value string) error {
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return unavailable("ошибка сохранения настройки", err)
	}
	return nil
}

func (s *SQLite) DeleteValue(ctx context.Context, key string) error {
	if err := s.check(); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return unavailable("ошибка удаления настройки", err)
	}
	return nil
}

func (s *SQLite) SaveReceipt(ctx context.Context, r collection.PrintedReceipt) error {
	if err := s.check(); err != nil {
		return err
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.PrintedAt.IsZero() {
		r.PrintedAt = time.Now().UTC()
	}
	body, err := msgpack.Marshal(&r)
	if err != nil {
		return fmt.Errorf("ошибка сериализации квитанции: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO receipts (id, body, printed_at) VALUES (?, ?, ?)",
		r.ID, body, r.PrintedAt.UnixNano())
	if err != nil {
		return unavailable("ошибка сохранения квитанции", err)
	}
	return nil
}

func (s *SQLite) ListReceipts(ctx context.Context) ([]collection.PrintedReceipt, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT body FROM receipts ORDER BY printed_at DESC, rowid DESC")
	if err != nil {
		return nil, unavailable("ошибка чтения квитанций", err)
	}
	defer rows.Close()

	var receipts []collection.PrintedReceipt
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, unavailable("ошибка сканирования квитанции", err)
		}
		var r collection.PrintedReceipt
		if err := msgpack.Unmarshal(body, &r); err != nil {
			s.log.Error("corrupted receipt", slog.Any("error", err))
			continue
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("ошибка чтения квитанций", err)
	}

	return receipts, nil
}

func (s *SQLite) TrimReceipts(ctx context.Context, keep int) error {
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM receipts WHERE id NOT IN (
			SELECT id FROM receipts ORDER BY printed_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return unavailable("ошибка очистки квитанций", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", collection.ErrStorageUnavailable, op, err)
}
