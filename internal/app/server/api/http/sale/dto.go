package sale

import "milkcollect/internal/domain/sale"

type collectionInput struct {
	Body sale.CollectionRequest
}

type saleInput struct {
	Body sale.SaleRequest
}

type batchInput struct {
	Body sale.BatchSaleRequest
}

type output struct {
	Status int
	Body   sale.SaleResponse
}
