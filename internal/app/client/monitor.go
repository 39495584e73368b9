package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/collection"
)

const (
	AuthAuthorizedKey = "auth.authorized"
	AuthCompanyKey    = "auth.company_name"
	AuthCheckedAtKey  = "auth.checked_at"

	// degradedAfter число подряд неудачных проверок версии до события деградации
	degradedAfter = 3

	defaultCheckTimeout   = 5 * time.Second
	defaultHealthInterval = 30 * time.Second
)

type HealthBackend interface {
	Authorization(ctx context.Context, fingerprint string) (AuthorizationResult, error)
	Version(ctx context.Context) (int, error)
}

// Monitor следит за авторизацией устройства и доступностью бэкенда
type Monitor struct {
	store    KeyValue
	backend  HealthBackend
	identity FingerprintSource
	bus      *Bus
	log      *slog.Logger
	timeout  time.Duration
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	version  collection.VersionStatus
	failures int
	degraded bool
}

type MonitorOption func(*Monitor)

func WithCheckTimeout(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.timeout = d }
}

func WithHealthInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = d }
}

func NewMonitor(store KeyValue, backend HealthBackend, identity FingerprintSource, bus *Bus, log *slog.Logger, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		store:    store,
		backend:  backend,
		identity: identity,
		bus:      bus,
		log:      log.With(slog.String("component", "monitor")),
		timeout:  defaultCheckTimeout,
		interval: defaultHealthInterval,
		now:      time.Now,
		version:  collection.VersionOK,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckAuthorization запрашивает авторизацию устройства. При сбое сети, таймауте,
// 5xx или нечитаемом ответе возвращает сохраненное состояние вместе с ошибкой.
func (m *Monitor) CheckAuthorization(ctx context.Context) (collection.AuthState, error) {
	cached, err := LoadAuthState(ctx, m.store)
	if err != nil {
		return cached, err
	}

	fp, err := m.identity.GetFingerprint(ctx)
	if err != nil {
		return cached, fmt.Errorf("fingerprint: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.backend.Authorization(checkCtx, fp)
	if err != nil {
		m.log.Warn("authorization check failed, keeping cached state",
			slog.Bool("authorized", cached.Authorized),
			slog.Any("error", err),
		)
		return cached, err
	}

	state := collection.AuthState{
		Known:       true,
		Authorized:  res.Authorized,
		CompanyName: res.CompanyName,
		CheckedAt:   m.now().UTC(),
	}
	if err := saveAuthState(ctx, m.store, state); err != nil {
		return state, err
	}

	if !cached.Known || cached.Authorized != state.Authorized || cached.CompanyName != state.CompanyName {
		m.log.Info("authorization changed",
			slog.Bool("authorized", state.Authorized),
			slog.String("company", state.CompanyName),
		)
		m.bus.Publish(EventAuthorizationChanged, state)
	}
	return state, nil
}

// CheckBackendVersion 200 означает актуальный бэкенд, любой другой ответ устаревший.
// Ошибка транспорта оставляет прежний статус.
func (m *Monitor) CheckBackendVersion(ctx context.Context) (collection.VersionStatus, error) {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status, err := m.backend.Version(checkCtx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.failures++
		if m.failures >= degradedAfter && !m.degraded {
			m.degraded = true
			m.log.Warn("backend degraded", slog.Int("failures", m.failures), slog.Any("error", err))
			m.bus.Publish(EventBackendDegraded, m.failures)
		}
		return m.version, err
	}

	m.failures = 0
	next := collection.VersionOK
	if status != http.StatusOK {
		next = collection.VersionStale
	}

	switch {
	case next == collection.VersionStale && m.version != collection.VersionStale:
		m.log.Warn("backend is stale", slog.Int("status", status))
		m.bus.Publish(EventBackendStale, status)
	case next == collection.VersionOK && (m.degraded || m.version == collection.VersionStale):
		m.log.Info("backend recovered")
		m.bus.Publish(EventBackendRecovered, nil)
	}

	m.degraded = false
	m.version = next
	return next, nil
}

// Status последний известный статус версии и признак деградации
func (m *Monitor) Status() (collection.VersionStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version, m.degraded
}

// Run опрашивает бэкенд с фиксированным интервалом до отмены контекста
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	if _, err := m.CheckBackendVersion(ctx); err != nil {
		m.log.Debug("version check failed", slog.Any("error", err))
		return
	}
	if _, err := m.CheckAuthorization(ctx); err != nil {
		m.log.Debug("authorization check failed", slog.Any("error", err))
	}
}

// LoadAuthState читает последнее сохраненное состояние авторизации
func LoadAuthState(ctx context.Context, store KeyValue) (collection.AuthState, error) {
	var state collection.AuthState

	raw, ok, err := store.GetValue(ctx, AuthAuthorizedKey)
	if err != nil || !ok {
		return state, err
	}
	state.Known = true
	state.Authorized = raw == "1"

	if company, ok, err := store.GetValue(ctx, AuthCompanyKey); err != nil {
		return state, err
	} else if ok {
		state.CompanyName = company
	}

	if checked, ok, err := store.GetValue(ctx, AuthCheckedAtKey); err != nil {
		return state, err
	} else if ok {
		if t, err := time.Parse(time.RFC3339Nano, checked); err == nil {
			state.CheckedAt = t
		}
	}
	return state, nil
}

func saveAuthState(ctx context.Context, store KeyValue, state collection.AuthState) error {
	authorized := "0"
	if state.Authorized {
		authorized = "1"
	}
	if err := store.SetValue(ctx, AuthAuthorizedKey, authorized); err != nil {
		return err
	}
	if err := store.SetValue(ctx, AuthCompanyKey, state.CompanyName); err != nil {
		return err
	}
	return store.SetValue(ctx, AuthCheckedAtKey, state.CheckedAt.Format(time.RFC3339Nano))
}
