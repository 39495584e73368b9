package bridge

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (b *Bridge) captureOp() huma.Operation {
	return huma.Operation{
		OperationID:   "capture-record",
		Method:        http.MethodPost,
		Path:          "/local/captures",
		Summary:       "Queue a record",
		Tags:          []string{"queue"},
		DefaultStatus: http.StatusCreated,
	}
}

func (b *Bridge) syncOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-now",
		Method:      http.MethodPost,
		Path:        "/local/sync",
		Summary:     "Run a sync pass",
		Tags:        []string{"queue"},
	}
}

func (b *Bridge) onlineOp() huma.Operation {
	return huma.Operation{
		OperationID:   "set-online",
		Method:        http.MethodPost,
		Path:          "/local/online",
		Summary:       "Report connectivity change",
		Tags:          []string{"device"},
		DefaultStatus: http.StatusNoContent,
	}
}

func (b *Bridge) statusOp() huma.Operation {
	return huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/local/status",
		Summary:     "Queue, connectivity and authorization summary",
		Tags:        []string{"device"},
	}
}

func (b *Bridge) receiptsOp() huma.Operation {
	return huma.Operation{
		OperationID: "list-receipts",
		Method:      http.MethodGet,
		Path:        "/local/receipts",
		Summary:     "Printed receipt cache",
		Tags:        []string{"receipts"},
	}
}

func (b *Bridge) printOp() huma.Operation {
	return huma.Operation{
		OperationID:   "print-receipt",
		Method:        http.MethodPost,
		Path:          "/local/receipts/print",
		Summary:       "Print a receipt",
		Tags:          []string{"receipts"},
		DefaultStatus: http.StatusNoContent,
	}
}

func (b *Bridge) referenceOp() huma.Operation {
	return huma.Operation{
		OperationID: "get-reference",
		Method:      http.MethodGet,
		Path:        "/local/reference/{kind}",
		Summary:     "Cached reference data",
		Tags:        []string{"reference"},
	}
}

func (b *Bridge) saveReferenceOp() huma.Operation {
	return huma.Operation{
		OperationID: "save-reference",
		Method:      http.MethodPut,
		Path:        "/local/reference/{kind}",
		Summary:     "Replace cached reference data",
		Tags:        []string{"reference"},
	}
}
