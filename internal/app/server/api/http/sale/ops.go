package sale

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) createCollectionOp() huma.Operation {
	return huma.Operation{
		OperationID:   "create-milk-collection",
		Method:        http.MethodPost,
		Path:          "/api/milk-collections",
		Summary:       "Upload a milk collection",
		Tags:          []string{"collections"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) createStoreSaleOp() huma.Operation {
	return huma.Operation{
		OperationID:   "create-store-sale",
		Method:        http.MethodPost,
		Path:          "/api/store-sales",
		Summary:       "Upload a single store sale",
		Tags:          []string{"sales"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) createStoreBatchOp() huma.Operation {
	return huma.Operation{
		OperationID:   "create-store-sale-batch",
		Method:        http.MethodPost,
		Path:          "/api/store-sales/batch",
		Summary:       "Upload store sales sharing an upload reference",
		Tags:          []string{"sales"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) createAISaleOp() huma.Operation {
	return huma.Operation{
		OperationID:   "create-ai-sale",
		Method:        http.MethodPost,
		Path:          "/api/ai-sales",
		Summary:       "Upload an AI sale",
		Tags:          []string{"sales"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}
