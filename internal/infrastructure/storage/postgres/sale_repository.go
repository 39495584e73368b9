package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/sale"
)

// SaleRepository реализация репозитория сборов и продаж для PostgreSQL
type SaleRepository struct {
	storage *Storage
	log     *slog.Logger
}

func NewSaleRepository(storage *Storage, log *slog.Logger) *SaleRepository {
	return &SaleRepository{
		storage: storage,
		log:     log,
	}
}

func (r *SaleRepository) SaveCollection(ctx context.Context, c sale.Collection) (string, error) {
	id := uuid.NewString()
	_, err := r.storage.pool.Exec(ctx, `
		INSERT INTO milk_collections (
			id, transaction_ref, farmer_id, farmer_name, route, session, quantity,
			user_id, clerk_name, season, weight_source, device_fingerprint, captured_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, id, c.TransactionRef, c.FarmerID, c.FarmerName, c.Route, c.Session, c.Quantity,
		c.UserID, c.ClerkName, c.Season, c.WeightSource, c.DeviceFingerprint, nullTime(c.CapturedAt), c.CreatedAt)
	if isUniqueViolation(err) {
		return "", sale.ErrDuplicate
	}
	if err != nil {
		return "", fmt.Errorf("failed to save collection: %w", err)
	}
	return id, nil
}

func (r *SaleRepository) SaveSale(ctx context.Context, s sale.Sale) (string, error) {
	id, _, err := insertSale(ctx, r.storage.pool, s, "")
	if isUniqueViolation(err) {
		return "", sale.ErrDuplicate
	}
	if err != nil {
		return "", fmt.Errorf("failed to save sale: %w", err)
	}
	return id, nil
}

func (r *SaleRepository) SaveBatch(ctx context.Context, b sale.Batch) error {
	tx, err := r.storage.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Warn("rollback failed", "error", rbErr)
		}
	}()

	if _, err := tx.Exec(ctx, `
		INSERT INTO sale_batches (upload_ref) VALUES ($1)
		ON CONFLICT (upload_ref) DO NOTHING
	`, b.UploadRef); err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}

	inserted := 0
	for _, s := range b.Sales {
		_, ok, err := insertSale(ctx, tx, s, onConflictSkip)
		if err != nil {
			return fmt.Errorf("failed to save batch item: %w", err)
		}
		if ok {
			inserted++
		}
	}
	if inserted == 0 {
		return sale.ErrDuplicate
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const onConflictSkip = " ON CONFLICT (kind, transaction_ref) DO NOTHING"

// insertSale возвращает inserted=false, если строка пропущена по ON CONFLICT
func insertSale(ctx context.Context, db execer, s sale.Sale, conflict string) (id string, inserted bool, err error) {
	id = uuid.NewString()
	tag, err := db.Exec(ctx, `
		INSERT INTO sales (
			id, kind, transaction_ref, upload_ref, farmer_id, farmer_name, route, item_code, item_name,
			quantity, price, user_id, sold_by, season, photo, device_fingerprint, captured_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`+conflict,
		id, string(s.Kind), s.TransactionRef, s.UploadRef, s.FarmerID, s.FarmerName, s.Route, s.ItemCode, s.ItemName,
		s.Quantity, s.Price, s.UserID, s.SoldBy, s.Season, s.Photo, s.DeviceFingerprint, nullTime(s.CapturedAt), s.CreatedAt)
	if err != nil {
		return "", false, err
	}
	return id, tag.RowsAffected() > 0, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
