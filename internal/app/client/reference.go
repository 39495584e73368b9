package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"milkcollect/internal/domain/collection"
)

type ReferenceStore interface {
	ListCached(ctx context.Context, kind collection.CacheKind) ([]collection.CacheEntry, error)
	SaveCached(ctx context.Context, kind collection.CacheKind, entries []collection.CacheEntry) error
}

// SaveReference кодирует справочник и перезаписывает его по естественным ключам
func SaveReference[T collection.Cacheable](ctx context.Context, store ReferenceStore, kind collection.CacheKind, items []T) error {
	entries := make([]collection.CacheEntry, 0, len(items))
	for _, item := range items {
		data, err := msgpack.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", kind, item.NaturalKey(), err)
		}
		entries = append(entries, collection.CacheEntry{Key: item.NaturalKey(), Data: data})
	}
	return store.SaveCached(ctx, kind, entries)
}

// LoadReference читает справочник; повреждённые записи пропускаются
func LoadReference[T collection.Cacheable](ctx context.Context, store ReferenceStore, kind collection.CacheKind) ([]T, error) {
	entries, err := store.ListCached(ctx, kind)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(entries))
	for _, e := range entries {
		var item T
		if err := msgpack.Unmarshal(e.Data, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// SaveReference заменяет справочник kind записями из JSON-массива и возвращает их число
func (a *App) SaveReference(ctx context.Context, kind collection.CacheKind, raw []byte) (int, error) {
	switch kind {
	case collection.KindFarmers:
		return saveReferenceJSON[collection.Farmer](ctx, a.store, kind, raw)
	case collection.KindRoutes:
		return saveReferenceJSON[collection.Route](ctx, a.store, kind, raw)
	case collection.KindProducts:
		return saveReferenceJSON[collection.Product](ctx, a.store, kind, raw)
	}
	return 0, fmt.Errorf("%w: unknown reference kind %q", collection.ErrInvalidRecord, kind)
}

// Reference возвращает закешированный справочник kind
func (a *App) Reference(ctx context.Context, kind collection.CacheKind) (any, error) {
	switch kind {
	case collection.KindFarmers:
		return LoadReference[collection.Farmer](ctx, a.store, kind)
	case collection.KindRoutes:
		return LoadReference[collection.Route](ctx, a.store, kind)
	case collection.KindProducts:
		return LoadReference[collection.Product](ctx, a.store, kind)
	}
	return nil, fmt.Errorf("%w: unknown reference kind %q", collection.ErrInvalidRecord, kind)
}

func saveReferenceJSON[T collection.Cacheable](ctx context.Context, store ReferenceStore, kind collection.CacheKind, raw []byte) (int, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, fmt.Errorf("%w: decode %s: %v", collection.ErrInvalidRecord, kind, err)
	}
	for _, item := range items {
		if item.NaturalKey() == "" {
			return 0, fmt.Errorf("%w: %s entry without key", collection.ErrInvalidRecord, kind)
		}
	}
	if err := SaveReference(ctx, store, kind, items); err != nil {
		return 0, err
	}
	return len(items), nil
}
