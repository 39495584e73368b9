package bridge

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/exp/slog"

	"milkcollect/internal/app/client"
	"milkcollect/internal/domain/collection"
)

const fallbackBrowser = "browser"

func (b *Bridge) capture(ctx context.Context, input *captureInput) (*captureOutput, error) {
	rec, err := b.core.Capture(ctx, input.Body.Type, input.Body.Payload.toPayload())
	switch {
	case err == nil:
		return &captureOutput{Body: rec}, nil
	case errors.Is(err, collection.ErrInvalidRecord):
		return nil, newError(http.StatusBadRequest, err.Error())
	default:
		b.log.Error("capture failed", slog.Any("error", err))
		return nil, newError(http.StatusServiceUnavailable, "Could not queue, try again")
	}
}

func (b *Bridge) sync(ctx context.Context, _ *struct{}) (*syncOutput, error) {
	result, err := b.core.SyncNow(ctx)
	switch {
	case err == nil:
		return &syncOutput{Body: result}, nil
	case errors.Is(err, collection.ErrAuthorizationDenied):
		return nil, newError(http.StatusForbidden, "Device not authorized")
	default:
		b.log.Warn("manual sync failed", slog.Any("error", err))
		return nil, newError(http.StatusInternalServerError, err.Error())
	}
}

func (b *Bridge) online(_ context.Context, input *onlineInput) (*struct{}, error) {
	b.core.SetOnline(input.Body.Online)
	return nil, nil
}

func (b *Bridge) status(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	st, err := b.core.Status(ctx)
	if err != nil {
		return nil, newError(http.StatusServiceUnavailable, err.Error())
	}
	return &statusOutput{Body: st}, nil
}

func (b *Bridge) receipts(ctx context.Context, _ *struct{}) (*receiptsOutput, error) {
	list, err := b.core.Receipts().List(ctx)
	if err != nil {
		return nil, newError(http.StatusServiceUnavailable, err.Error())
	}
	return &receiptsOutput{Body: list}, nil
}

func (b *Bridge) print(ctx context.Context, input *printInput) (*struct{}, error) {
	err := b.core.Receipts().Print(ctx, input.Body.toReceipt())
	switch {
	case err == nil:
		return nil, nil
	case client.IsNoPrinter(err):
		e := newError(http.StatusServiceUnavailable, client.NoPrinterMessage)
		e.Fallback = fallbackBrowser
		return nil, e
	default:
		return nil, newError(http.StatusBadGateway, err.Error())
	}
}

func (b *Bridge) reference(ctx context.Context, input *referenceInput) (*referenceOutput, error) {
	items, err := b.core.Reference(ctx, collection.CacheKind(input.Kind))
	if err != nil {
		return nil, referenceError(err)
	}
	return &referenceOutput{Body: items}, nil
}

func (b *Bridge) saveReference(ctx context.Context, input *saveReferenceInput) (*saveReferenceOutput, error) {
	n, err := b.core.SaveReference(ctx, collection.CacheKind(input.Kind), input.RawBody)
	if err != nil {
		b.log.Warn("reference update rejected", slog.String("kind", input.Kind), slog.Any("error", err))
		return nil, referenceError(err)
	}
	out := &saveReferenceOutput{}
	out.Body.Saved = n
	return out, nil
}

func referenceError(err error) error {
	if errors.Is(err, collection.ErrInvalidRecord) {
		return newError(http.StatusBadRequest, err.Error())
	}
	return newError(http.StatusServiceUnavailable, err.Error())
}
