package version

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) versionOp() huma.Operation {
	return huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "API version",
		Description: "Returns the API contract version; clients treat a missing endpoint as an outdated backend",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health check endpoint",
		Description: "Returns the health status of the service",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
