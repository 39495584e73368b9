package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milkcollect/internal/domain/device"
	"milkcollect/internal/domain/sale"
)

func TestDeviceRepository(t *testing.T) {
	ctx := context.Background()
	r := NewDeviceRepository()

	_, err := r.Get(ctx, "fp")
	assert.ErrorIs(t, err, device.ErrNotFound)

	require.NoError(t, r.Create(ctx, device.Device{Fingerprint: "fp"}))
	assert.ErrorIs(t, r.Create(ctx, device.Device{Fingerprint: "fp"}), device.ErrAlreadyExists)

	d, err := r.Approve(ctx, "fp", "Coop", "DEV-1")
	require.NoError(t, err)
	assert.True(t, d.Approved)
	assert.Equal(t, "DEV-1", d.UniqueDevCode)

	_, err = r.Approve(ctx, "missing", "Coop", "DEV-2")
	assert.ErrorIs(t, err, device.ErrNotFound)
}

func TestSaleRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	r := NewSaleRepository()

	_, err := r.SaveCollection(ctx, sale.Collection{TransactionRef: "TXN-1"})
	require.NoError(t, err)
	_, err = r.SaveCollection(ctx, sale.Collection{TransactionRef: "TXN-1"})
	assert.ErrorIs(t, err, sale.ErrDuplicate)

	_, err = r.SaveSale(ctx, sale.Sale{Kind: sale.KindStore, TransactionRef: "TXN-1"})
	require.NoError(t, err)
	// тот же номер допустим для другого вида продажи
	_, err = r.SaveSale(ctx, sale.Sale{Kind: sale.KindAI, TransactionRef: "TXN-1"})
	require.NoError(t, err)
	_, err = r.SaveSale(ctx, sale.Sale{Kind: sale.KindAI, TransactionRef: "TXN-1"})
	assert.ErrorIs(t, err, sale.ErrDuplicate)
}

func TestSaleRepository_BatchIsIdempotentPerItem(t *testing.T) {
	ctx := context.Background()
	r := NewSaleRepository()

	_, err := r.SaveSale(ctx, sale.Sale{Kind: sale.KindStore, TransactionRef: "TXN-2"})
	require.NoError(t, err)

	// уже принятая позиция пропускается, новая сохраняется
	err = r.SaveBatch(ctx, sale.Batch{UploadRef: "BA1", Sales: []sale.Sale{
		{Kind: sale.KindStore, TransactionRef: "TXN-1"},
		{Kind: sale.KindStore, TransactionRef: "TXN-2"},
	}})
	require.NoError(t, err)
	_, sales := r.Counts()
	assert.Equal(t, 2, sales)

	batch := sale.Batch{UploadRef: "BA2", Sales: []sale.Sale{
		{Kind: sale.KindStore, TransactionRef: "TXN-3"},
		{Kind: sale.KindStore, TransactionRef: "TXN-4"},
	}}
	require.NoError(t, r.SaveBatch(ctx, batch))
	assert.ErrorIs(t, r.SaveBatch(ctx, batch), sale.ErrDuplicate)

	// позиция, дописанная в тот же пакет после выгрузки первой части
	require.NoError(t, r.SaveBatch(ctx, sale.Batch{UploadRef: "BA2", Sales: []sale.Sale{
		{Kind: sale.KindStore, TransactionRef: "TXN-5"},
	}}))

	_, sales = r.Counts()
	assert.Equal(t, 5, sales)
}
