package sale

import "context"

type Repository interface {
	// SaveCollection возвращает ErrDuplicate, если transaction_ref уже принят
	SaveCollection(ctx context.Context, c Collection) (string, error)
	// SaveSale возвращает ErrDuplicate, если transaction_ref уже принят для этого вида
	SaveSale(ctx context.Context, s Sale) (string, error)
	// SaveBatch атомарно сохраняет ещё не принятые позиции пакета; уникальность позиции
	// определяется парой (вид, transaction_ref). ErrDuplicate, только если приняты все позиции.
	SaveBatch(ctx context.Context, b Batch) error
}
