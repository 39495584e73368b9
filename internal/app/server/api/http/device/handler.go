package device

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/device"
)

type Handler struct {
	service         device.Servicer
	log             *slog.Logger
	middleware      huma.Middlewares
	adminMiddleware huma.Middlewares
}

func NewHandler(service device.Servicer, log *slog.Logger, mws, adminMws huma.Middlewares) *Handler {
	return &Handler{
		service:         service,
		log:             log,
		middleware:      mws,
		adminMiddleware: adminMws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.authorizationOp(), h.authorization)
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.approveOp(), h.approve)
}

func (h *Handler) authorization(ctx context.Context, input *authorizationInput) (*authorizationOutput, error) {
	data, err := h.service.GetAuthorization(ctx, input.Fingerprint)
	if errors.Is(err, device.ErrNotFound) {
		return &authorizationOutput{
			Status: http.StatusNotFound,
			Body:   device.AuthorizationResponse{Success: false, Message: "Device not registered"},
		}, nil
	}
	if err != nil {
		h.log.Error("get authorization", "error", err)
		return nil, huma.Error500InternalServerError("Internal error")
	}

	return &authorizationOutput{
		Status: http.StatusOK,
		Body:   device.AuthorizationResponse{Success: true, Data: &data},
	}, nil
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	d, err := h.service.Register(ctx, input.Body)
	if errors.Is(err, device.ErrInvalidInput) {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err != nil {
		h.log.Error("register device", "error", err)
		return nil, huma.Error500InternalServerError("Internal error")
	}

	msg := "Device registered, awaiting approval"
	if d.Approved {
		msg = "Device already approved"
	}
	return &registerOutput{
		Status: http.StatusCreated,
		Body:   device.RegisterResponse{Success: true, Message: msg},
	}, nil
}

func (h *Handler) approve(ctx context.Context, input *approveInput) (*approveOutput, error) {
	d, err := h.service.Approve(ctx, input.Fingerprint, input.Body)
	switch {
	case errors.Is(err, device.ErrNotFound):
		return nil, huma.Error404NotFound("Device not registered")
	case errors.Is(err, device.ErrInvalidInput):
		return nil, huma.Error400BadRequest(err.Error())
	case err != nil:
		h.log.Error("approve device", "error", err)
		return nil, huma.Error500InternalServerError("Internal error")
	}

	return &approveOutput{
		Body: device.AuthorizationResponse{
			Success: true,
			Data: &device.AuthorizationData{
				Authorized:    1,
				CompanyName:   d.CompanyName,
				UniqueDevCode: d.UniqueDevCode,
			},
		},
	}, nil
}
