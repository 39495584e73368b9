package collection

import (
	"fmt"
	"strings"
	"time"
)

// RecordType тип операции, захваченной на устройстве
type RecordType string

const (
	TypeMilkCollection RecordType = "milk-collection"
	TypeStoreSale      RecordType = "store-sale"
	TypeAISale         RecordType = "ai-sale"
)

// Valid проверяет, что тип записи известен
func (t RecordType) Valid() bool {
	switch t {
	case TypeMilkCollection, TypeStoreSale, TypeAISale:
		return true
	}
	return false
}

// Payload содержательная часть записи: фермер, маршрут, количество, цена и ссылки
type Payload struct {
	FarmerID          string    `msgpack:"farmer_id" json:"farmer_id"`
	FarmerName        string    `msgpack:"farmer_name" json:"farmer_name,omitempty"`
	Route             string    `msgpack:"route" json:"route,omitempty"`
	Session           string    `msgpack:"session" json:"session,omitempty"`
	ItemCode          string    `msgpack:"item_code" json:"item_code,omitempty"`
	ItemName          string    `msgpack:"item_name" json:"item_name,omitempty"`
	Quantity          float64   `msgpack:"quantity" json:"quantity"`
	Price             float64   `msgpack:"price" json:"price,omitempty"`
	UserID            string    `msgpack:"user_id" json:"user_id,omitempty"`
	ClerkName         string    `msgpack:"clerk_name" json:"clerk_name,omitempty"`
	Season            string    `msgpack:"season" json:"season,omitempty"`
	Photo             []byte    `msgpack:"photo" json:"photo,omitempty"`
	UploadRef         string    `msgpack:"upload_ref" json:"upload_ref,omitempty"`
	TransactionRef    string    `msgpack:"transaction_ref" json:"transaction_ref,omitempty"`
	DeviceFingerprint string    `msgpack:"device_fingerprint" json:"device_fingerprint,omitempty"`
	WeightSource      string    `msgpack:"weight_source" json:"weight_source,omitempty"`
	CapturedAt        time.Time `msgpack:"captured_at" json:"captured_at"`
}

// QueuedRecord исходящая транзакция, ожидающая выгрузки.
// Synced всегда false, пока запись хранится локально: выгруженные записи удаляются.
type QueuedRecord struct {
	ID        string     `json:"id"`
	Type      RecordType `json:"type"`
	Payload   Payload    `json:"payload"`
	Synced    bool       `json:"synced"`
	CreatedAt time.Time  `json:"created_at"`
}

// Validate проверяет обязательные поля записи в зависимости от типа
func Validate(typ RecordType, p Payload) error {
	if !typ.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRecord, typ)
	}
	if strings.TrimSpace(p.FarmerID) == "" {
		return fmt.Errorf("%w: farmer id is required", ErrInvalidRecord)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidRecord)
	}
	if typ != TypeMilkCollection && strings.TrimSpace(p.ItemCode) == "" {
		return fmt.Errorf("%w: item code is required for %s", ErrInvalidRecord, typ)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidRecord)
	}
	return nil
}

// CacheKind вид справочных данных
type CacheKind string

const (
	KindFarmers  CacheKind = "farmers"
	KindRoutes   CacheKind = "routes"
	KindProducts CacheKind = "products"
)

// CacheEntry закодированная запись справочника с естественным ключом
type CacheEntry struct {
	Key  string
	Data []byte
}

// Cacheable справочная сущность с естественным ключом
type Cacheable interface {
	NaturalKey() string
}

type Farmer struct {
	ID    string `msgpack:"id" json:"id"`
	Name  string `msgpack:"name" json:"name"`
	Route string `msgpack:"route" json:"route"`
}

func (f Farmer) NaturalKey() string { return f.ID }

type Route struct {
	Code string `msgpack:"code" json:"code"`
	Name string `msgpack:"name" json:"name"`
}

func (r Route) NaturalKey() string { return r.Code }

type Product struct {
	Code  string  `msgpack:"code" json:"code"`
	Name  string  `msgpack:"name" json:"name"`
	Price float64 `msgpack:"price" json:"price"`
}

func (p Product) NaturalKey() string { return p.Code }

// AuthState последнее известное состояние авторизации устройства
type AuthState struct {
	Known       bool      `json:"known"`
	Authorized  bool      `json:"authorized"`
	CompanyName string    `json:"company_name,omitempty"`
	CheckedAt   time.Time `json:"checked_at,omitempty"`
}

// Denied true только при явном отказе, полученном от бэкенда
func (s AuthState) Denied() bool {
	return s.Known && !s.Authorized
}

// VersionStatus результат проверки версии бэкенда
type VersionStatus string

const (
	VersionOK    VersionStatus = "ok"
	VersionStale VersionStatus = "stale"
)

// PendingRegistration регистрация устройства, ожидающая отправки
type PendingRegistration struct {
	Fingerprint string    `json:"fingerprint"`
	UserID      string    `json:"user_id"`
	DeviceInfo  string    `json:"device_info"`
	QueuedAt    time.Time `json:"queued_at"`
}

// PassResult итог одного прохода синхронизации
type PassResult struct {
	Synced  int  `json:"synced"`
	Failed  int  `json:"failed"`
	Skipped bool `json:"skipped,omitempty"`
	Offline bool `json:"offline,omitempty"`
}
