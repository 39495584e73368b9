package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/collection"
	"milkcollect/internal/domain/device"
)

// PendingRegistrationKey ключ настроек с регистрацией, ожидающей сети
const PendingRegistrationKey = "device.pending_registration"

type KeyValue interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error
}

type FingerprintSource interface {
	GetFingerprint(ctx context.Context) (string, error)
}

type DeviceRegistrar interface {
	RegisterDevice(ctx context.Context, req device.RegisterRequest) error
}

// Registration отправляет заявку на регистрацию устройства,
// при отсутствии сети откладывает её до следующего прохода синхронизации
type Registration struct {
	store    KeyValue
	identity FingerprintSource
	backend  DeviceRegistrar
	log      *slog.Logger
	now      func() time.Time
}

func NewRegistration(store KeyValue, identity FingerprintSource, backend DeviceRegistrar, log *slog.Logger) *Registration {
	return &Registration{
		store:    store,
		identity: identity,
		backend:  backend,
		log:      log.With(slog.String("component", "registration")),
		now:      time.Now,
	}
}

// Register возвращает queued=true, если заявка сохранена для повторной отправки.
// После явного отказа бэкенда новые заявки не принимаются.
func (r *Registration) Register(ctx context.Context, userID, deviceInfo string) (bool, error) {
	if err := r.checkDenied(ctx); err != nil {
		return false, err
	}

	fp, err := r.identity.GetFingerprint(ctx)
	if err != nil {
		return false, fmt.Errorf("fingerprint: %w", err)
	}

	pending := collection.PendingRegistration{
		Fingerprint: fp,
		UserID:      userID,
		DeviceInfo:  deviceInfo,
		QueuedAt:    r.now().UTC(),
	}

	err = r.send(ctx, pending)
	if err == nil {
		return false, r.store.DeleteValue(ctx, PendingRegistrationKey)
	}
	if !isTransient(err) {
		return false, err
	}

	if err := r.queue(ctx, pending); err != nil {
		return false, err
	}
	r.log.Info("device registration queued", slog.Any("reason", err))
	return true, nil
}

// Flush повторно отправляет отложенную заявку, если она есть.
// При отказе в авторизации заявка остаётся в очереди.
func (r *Registration) Flush(ctx context.Context) error {
	raw, ok, err := r.store.GetValue(ctx, PendingRegistrationKey)
	if err != nil || !ok {
		return err
	}
	if err := r.checkDenied(ctx); err != nil {
		return err
	}

	var pending collection.PendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		r.log.Warn("dropping malformed pending registration", slog.Any("error", err))
		return r.store.DeleteValue(ctx, PendingRegistrationKey)
	}

	if err := r.send(ctx, pending); err != nil {
		if isTransient(err) {
			return nil
		}
		return err
	}

	r.log.Info("pending device registration sent")
	return r.store.DeleteValue(ctx, PendingRegistrationKey)
}

// Pending возвращает отложенную заявку
func (r *Registration) Pending(ctx context.Context) (*collection.PendingRegistration, error) {
	raw, ok, err := r.store.GetValue(ctx, PendingRegistrationKey)
	if err != nil || !ok {
		return nil, err
	}
	var pending collection.PendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return nil, fmt.Errorf("decode pending registration: %w", err)
	}
	return &pending, nil
}

func (r *Registration) checkDenied(ctx context.Context) error {
	auth, err := LoadAuthState(ctx, r.store)
	if err != nil {
		return fmt.Errorf("load authorization: %w", err)
	}
	if auth.Denied() {
		return collection.ErrAuthorizationDenied
	}
	return nil
}

func (r *Registration) send(ctx context.Context, p collection.PendingRegistration) error {
	return r.backend.RegisterDevice(ctx, device.RegisterRequest{
		Fingerprint: p.Fingerprint,
		UserID:      p.UserID,
		DeviceInfo:  p.DeviceInfo,
		Approved:    false,
	})
}

func (r *Registration) queue(ctx context.Context, p collection.PendingRegistration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending registration: %w", err)
	}
	return r.store.SetValue(ctx, PendingRegistrationKey, string(data))
}

// isTransient ошибки сети и 5xx: запрос имеет смысл повторить позже
func isTransient(err error) bool {
	if errors.Is(err, collection.ErrNetworkUnreachable) || errors.Is(err, collection.ErrTimeout) {
		return true
	}
	var upErr *collection.UploadError
	return errors.As(err, &upErr) && upErr.Status >= 500
}
