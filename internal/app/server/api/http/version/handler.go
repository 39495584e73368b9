package version

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type Handler struct {
	version    string
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(version string, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		version:    version,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.versionOp(), h.getVersion)
	huma.Register(api, h.healthCheckOp(), h.getVersion)
}

// getVersion наличие эндпоинта и ответ 200 означают, что клиент и бэкенд совместимы
func (h *Handler) getVersion(_ context.Context, _ *Input) (*Output, error) {
	h.log.Debug("version request received")

	return &Output{
		Body: VersionResponse{
			Status:  "OK",
			Version: h.version,
		},
	}, nil
}
