package sale

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/collection"
	"milkcollect/internal/domain/sale"
)

const codeDeviceNotAuthorized = "DEVICE_NOT_AUTHORIZED"

type Handler struct {
	service    sale.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sale.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.createCollectionOp(), h.createCollection)
	huma.Register(api, h.createStoreSaleOp(), h.createStoreSale)
	huma.Register(api, h.createStoreBatchOp(), h.createStoreBatch)
	huma.Register(api, h.createAISaleOp(), h.createAISale)
}

func (h *Handler) createCollection(ctx context.Context, input *collectionInput) (*output, error) {
	id, err := h.service.CreateCollection(ctx, input.Body)
	return h.respond(id, err)
}

func (h *Handler) createStoreSale(ctx context.Context, input *saleInput) (*output, error) {
	id, err := h.service.CreateSale(ctx, sale.KindStore, input.Body)
	return h.respond(id, err)
}

func (h *Handler) createAISale(ctx context.Context, input *saleInput) (*output, error) {
	id, err := h.service.CreateSale(ctx, sale.KindAI, input.Body)
	return h.respond(id, err)
}

func (h *Handler) createStoreBatch(ctx context.Context, input *batchInput) (*output, error) {
	id, err := h.service.CreateBatch(ctx, input.Body)
	return h.respond(id, err)
}

// respond переводит доменные ошибки в конверт {success, message, code}
func (h *Handler) respond(id string, err error) (*output, error) {
	switch {
	case err == nil:
		return &output{
			Status: http.StatusCreated,
			Body:   sale.SaleResponse{Success: true, ID: id},
		}, nil
	case errors.Is(err, sale.ErrDuplicate):
		return &output{
			Status: http.StatusConflict,
			Body: sale.SaleResponse{
				Success: false,
				Code:    collection.DuplicateCode,
				Message: "Transaction already exists",
			},
		}, nil
	case errors.Is(err, sale.ErrDeviceNotAuthorized):
		return &output{
			Status: http.StatusForbidden,
			Body: sale.SaleResponse{
				Success: false,
				Code:    codeDeviceNotAuthorized,
				Message: "Device is not authorized",
			},
		}, nil
	case errors.Is(err, sale.ErrInvalidInput):
		return &output{
			Status: http.StatusBadRequest,
			Body:   sale.SaleResponse{Success: false, Message: err.Error()},
		}, nil
	default:
		h.log.Error("create failed", "error", err)
		return nil, huma.Error500InternalServerError("Internal error")
	}
}
