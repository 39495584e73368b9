package client

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"milkcollect/internal/app/client/config"
	"milkcollect/internal/app/client/identity"
	"milkcollect/internal/app/client/storage"
	"milkcollect/internal/domain/collection"
)

const backupCheckInterval = time.Hour

// Backend операции бэкенда, используемые клиентом
type Backend interface {
	Uploader
	HealthBackend
	DeviceRegistrar
}

// App собирает компоненты клиента: очередь, идентичность, синхронизацию и мониторинг
type App struct {
	config   *config.Config
	log      *slog.Logger
	store    storage.Storage
	identity *identity.Provider
	bus      *Bus
	lock     *SyncLock
	conn     *Connectivity

	syncService  *SyncService
	coordinator  *Coordinator
	monitor      *Monitor
	registration *Registration
	receipts     *Receipts
	backups      *Backups
	weight       *WeightMonitor

	wg sync.WaitGroup
}

// Option меняет зависимости App; используется оболочкой и тестами
type Option func(*deps)

type deps struct {
	store   storage.Storage
	backend Backend
	printer Printer
	signals func() identity.Signals
}

func WithStorage(s storage.Storage) Option {
	return func(d *deps) { d.store = s }
}

func WithBackend(b Backend) Option {
	return func(d *deps) { d.backend = b }
}

func WithPrinter(p Printer) Option {
	return func(d *deps) { d.printer = p }
}

func WithIdentitySignals(fn func() identity.Signals) Option {
	return func(d *deps) { d.signals = fn }
}

// New открывает хранилище и собирает компоненты. Если SQLite недоступен,
// очередь работает в памяти.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	d := &deps{}
	for _, opt := range opts {
		opt(d)
	}
	if d.backend == nil {
		d.backend = NewHTTPClient(cfg.BaseURL(), log)
	}

	store, err := openStorage(ctx, cfg, d.store, log)
	if err != nil {
		return nil, err
	}

	var idOpts []identity.Option
	if d.signals != nil {
		idOpts = append(idOpts, identity.WithSignals(d.signals))
	}

	a := &App{
		config:   cfg,
		log:      log,
		store:    store,
		identity: identity.NewProvider(store, log, idOpts...),
		bus:      NewBus(log),
		lock:     &SyncLock{},
	}
	a.conn = NewConnectivity(a.bus, true)
	a.registration = NewRegistration(store, a.identity, d.backend, log)
	a.syncService = NewSyncService(store, d.backend, a.identity, a.conn, a.lock, a.registration, a.bus, log)
	a.coordinator = NewCoordinator(a.conn, a.syncService, cfg.SyncEvery(), log)
	a.monitor = NewMonitor(store, d.backend, a.identity, a.bus, log,
		WithCheckTimeout(cfg.CheckTimeoutDuration()),
		WithHealthInterval(cfg.HealthEvery()),
	)
	a.receipts = NewReceipts(store, d.printer, cfg.ReceiptLimit, log)
	a.backups = NewBackups(store, log)
	a.weight = NewWeightMonitor(a.bus, log)

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, store storage.Storage, log *slog.Logger) (storage.Storage, error) {
	if store != nil {
		if err := store.Open(ctx); err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		return store, nil
	}

	sqlite := storage.NewSQLite(cfg.DataPath, log)
	err := sqlite.Open(ctx)
	if err == nil {
		return sqlite, nil
	}
	log.Warn("sqlite unavailable, falling back to in-memory queue", slog.Any("error", err))

	mem := storage.NewMemory()
	if err := mem.Open(ctx); err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return mem, nil
}

// Run запускает координатор, мониторинг и проверку резервного копирования до отмены контекста
func (a *App) Run(ctx context.Context) {
	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		a.coordinator.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.monitor.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.runBackups(ctx)
	}()

	a.log.Info("client started",
		slog.String("server", a.config.ServerAddress),
		slog.String("env", a.config.Env),
	)
	a.wg.Wait()
}

func (a *App) runBackups(ctx context.Context) {
	ticker := time.NewTicker(backupCheckInterval)
	defer ticker.Stop()

	dir := a.BackupDir()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due, err := a.backups.BackupDue(ctx, now)
			if err != nil {
				a.log.Warn("backup settings unreadable", slog.Any("error", err))
				continue
			}
			if !due {
				continue
			}
			if _, err := a.backups.Backup(ctx, dir, now); err != nil {
				a.log.Error("auto backup failed", slog.Any("error", err))
			}
		}
	}
}

// Capture проверяет и ставит запись в очередь. Сеть и авторизация не проверяются.
func (a *App) Capture(ctx context.Context, typ collection.RecordType, p collection.Payload) (collection.QueuedRecord, error) {
	if err := collection.Validate(typ, p); err != nil {
		return collection.QueuedRecord{}, err
	}
	if p.TransactionRef == "" {
		p.TransactionRef = "TXN-" + uuid.NewString()
	}
	if p.CapturedAt.IsZero() {
		p.CapturedAt = time.Now().UTC()
	}

	rec := collection.QueuedRecord{Type: typ, Payload: p}
	id, err := a.store.Save(ctx, rec)
	if err != nil {
		return collection.QueuedRecord{}, fmt.Errorf("could not queue, try again: %w", err)
	}
	rec.ID = id

	a.log.Debug("record queued", slog.String("id", id), slog.String("type", string(typ)))
	a.bus.Publish(EventCaptureQueued, rec)
	return rec, nil
}

// SyncNow ручной запуск прохода синхронизации
func (a *App) SyncNow(ctx context.Context) (collection.PassResult, error) {
	return a.syncService.Sync(ctx)
}

// SetOnline сообщает о смене состояния сети
func (a *App) SetOnline(online bool) {
	a.conn.SetOnline(online)
}

// RegisterDevice отправляет заявку на регистрацию; без сети заявка откладывается
func (a *App) RegisterDevice(ctx context.Context, userID, deviceInfo string) (bool, error) {
	return a.registration.Register(ctx, userID, deviceInfo)
}

func (a *App) Fingerprint(ctx context.Context) (string, error) {
	return a.identity.GetFingerprint(ctx)
}

func (a *App) CheckAuthorization(ctx context.Context) (collection.AuthState, error) {
	return a.monitor.CheckAuthorization(ctx)
}

func (a *App) CheckBackendVersion(ctx context.Context) (collection.VersionStatus, error) {
	return a.monitor.CheckBackendVersion(ctx)
}

// Status сводка для интерфейса
type Status struct {
	Online        bool                     `json:"online"`
	Syncing       bool                     `json:"syncing"`
	Pending       int                      `json:"pending"`
	Quarantined   int                      `json:"quarantined,omitempty"`
	Authorization collection.AuthState     `json:"authorization"`
	Backend       collection.VersionStatus `json:"backend"`
	Degraded      bool                     `json:"degraded"`
	LastSync      *time.Time               `json:"last_sync,omitempty"`
	LastResult    collection.PassResult    `json:"last_result"`
	Weight        *WeightReading           `json:"weight,omitempty"`
}

func (a *App) Status(ctx context.Context) (Status, error) {
	records, err := a.store.ListUnsynced(ctx)
	if err != nil {
		return Status{}, err
	}
	quarantined, err := a.store.Quarantined(ctx)
	if err != nil {
		return Status{}, err
	}
	auth, err := LoadAuthState(ctx, a.store)
	if err != nil {
		return Status{}, err
	}
	version, degraded := a.monitor.Status()
	last, at := a.syncService.LastResult()

	st := Status{
		Online:        a.conn.Online(),
		Syncing:       a.lock.Locked(),
		Pending:       len(records),
		Quarantined:   quarantined,
		Authorization: auth,
		Backend:       version,
		Degraded:      degraded,
		LastResult:    last,
	}
	if !at.IsZero() {
		st.LastSync = &at
	}
	if w, ok := a.weight.Latest(); ok {
		st.Weight = &w
	}
	return st, nil
}

func (a *App) Pending(ctx context.Context, types ...collection.RecordType) ([]collection.QueuedRecord, error) {
	return a.store.ListUnsynced(ctx, types...)
}

func (a *App) Bus() *Bus { return a.bus }

func (a *App) Receipts() *Receipts { return a.receipts }

func (a *App) Backups() *Backups { return a.backups }

func (a *App) Weight() *WeightMonitor { return a.weight }

func (a *App) Coordinator() *Coordinator { return a.coordinator }

func (a *App) Store() storage.Storage { return a.store }

func (a *App) Config() *config.Config { return a.config }

func (a *App) Logger() *slog.Logger { return a.log }

// BackupDir каталог автоматических резервных копий
func (a *App) BackupDir() string {
	return filepath.Join(a.config.ConfigDir, "backups")
}

func (a *App) Close() error {
	return a.store.Close()
}
