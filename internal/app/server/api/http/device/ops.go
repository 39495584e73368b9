package device

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) authorizationOp() huma.Operation {
	return huma.Operation{
		OperationID: "get-device-authorization",
		Method:      http.MethodGet,
		Path:        "/api/devices/fingerprint/{fingerprint}",
		Summary:     "Device authorization by fingerprint",
		Tags:        []string{"devices"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) registerOp() huma.Operation {
	return huma.Operation{
		OperationID:   "register-device",
		Method:        http.MethodPost,
		Path:          "/api/devices",
		Summary:       "Register a pending device",
		Tags:          []string{"devices"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) approveOp() huma.Operation {
	return huma.Operation{
		OperationID: "approve-device",
		Method:      http.MethodPost,
		Path:        "/api/devices/{fingerprint}/approve",
		Summary:     "Approve a device for a company",
		Tags:        []string{"devices", "admin"},
		Middlewares: h.adminMiddleware,
	}
}
