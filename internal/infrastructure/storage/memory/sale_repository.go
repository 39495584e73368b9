package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"milkcollect/internal/domain/sale"
)

// SaleRepository хранит сборы и продажи в памяти с теми же ограничениями уникальности, что и PostgreSQL
type SaleRepository struct {
	mu          sync.Mutex
	collections map[string]sale.Collection
	sales       map[string]sale.Sale
	batches     map[string]struct{}
}

func NewSaleRepository() *SaleRepository {
	return &SaleRepository{
		collections: make(map[string]sale.Collection),
		sales:       make(map[string]sale.Sale),
		batches:     make(map[string]struct{}),
	}
}

func (r *SaleRepository) SaveCollection(_ context.Context, c sale.Collection) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.collections[c.TransactionRef]; ok {
		return "", sale.ErrDuplicate
	}
	c.ID = uuid.NewString()
	r.collections[c.TransactionRef] = c
	return c.ID, nil
}

func (r *SaleRepository) SaveSale(_ context.Context, s sale.Sale) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := saleKey(s)
	if _, ok := r.sales[key]; ok {
		return "", sale.ErrDuplicate
	}
	s.ID = uuid.NewString()
	r.sales[key] = s
	return s.ID, nil
}

func (r *SaleRepository) SaveBatch(_ context.Context, b sale.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := make([]sale.Sale, 0, len(b.Sales))
	seen := make(map[string]struct{}, len(b.Sales))
	for _, s := range b.Sales {
		key := saleKey(s)
		if _, ok := r.sales[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, s)
	}
	if len(fresh) == 0 {
		return sale.ErrDuplicate
	}

	r.batches[b.UploadRef] = struct{}{}
	for _, s := range fresh {
		s.ID = uuid.NewString()
		r.sales[saleKey(s)] = s
	}
	return nil
}

// Counts количество принятых сборов и продаж
func (r *SaleRepository) Counts() (collections, sales int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.collections), len(r.sales)
}

func saleKey(s sale.Sale) string {
	return string(s.Kind) + "/" + s.TransactionRef
}
