package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/device"
)

// DeviceRepository реализация репозитория устройств для PostgreSQL
type DeviceRepository struct {
	storage *Storage
	log     *slog.Logger
}

func NewDeviceRepository(storage *Storage, log *slog.Logger) *DeviceRepository {
	return &DeviceRepository{
		storage: storage,
		log:     log,
	}
}

const deviceColumns = `fingerprint, user_id, device_info, approved, company_name, unique_dev_code, created_at, updated_at`

func (r *DeviceRepository) Get(ctx context.Context, fingerprint string) (device.Device, error) {
	row := r.storage.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE fingerprint = $1`, fingerprint)

	d, err := scanDevice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return device.Device{}, device.ErrNotFound
	}
	if err != nil {
		return device.Device{}, fmt.Errorf("failed to get device: %w", err)
	}
	return d, nil
}

func (r *DeviceRepository) Create(ctx context.Context, d device.Device) error {
	_, err := r.storage.pool.Exec(ctx, `
		INSERT INTO devices (fingerprint, user_id, device_info, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.Fingerprint, d.UserID, d.DeviceInfo, d.Approved, d.CreatedAt, d.UpdatedAt)
	if isUniqueViolation(err) {
		return device.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

func (r *DeviceRepository) Approve(ctx context.Context, fingerprint, companyName, uniqueDevCode string) (device.Device, error) {
	row := r.storage.pool.QueryRow(ctx, `
		UPDATE devices SET
			approved = TRUE,
			company_name = $2,
			unique_dev_code = CASE WHEN unique_dev_code = '' THEN $3 ELSE unique_dev_code END,
			updated_at = NOW()
		WHERE fingerprint = $1
		RETURNING `+deviceColumns,
		fingerprint, companyName, uniqueDevCode)

	d, err := scanDevice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return device.Device{}, device.ErrNotFound
	}
	if err != nil {
		return device.Device{}, fmt.Errorf("failed to approve device: %w", err)
	}
	return d, nil
}

func scanDevice(row pgx.Row) (device.Device, error) {
	var d device.Device
	err := row.Scan(
		&d.Fingerprint,
		&d.UserID,
		&d.DeviceInfo,
		&d.Approved,
		&d.CompanyName,
		&d.UniqueDevCode,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}
