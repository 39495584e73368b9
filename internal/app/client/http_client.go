package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/collection"
	"milkcollect/internal/domain/device"
	"milkcollect/internal/domain/sale"
)

const (
	uploadTimeout = 30 * time.Second
	userAgent     = "MilkCollect-Client/1.0"
)

// AuthorizationResult разобранный ответ бэкенда об авторизации устройства
type AuthorizationResult struct {
	Authorized  bool
	CompanyName string
}

type httpClient struct {
	client  *http.Client
	log     *slog.Logger
	baseURL string
}

// NewHTTPClient клиент бэкенда; таймаут выгрузки 30 секунд
func NewHTTPClient(baseURL string, log *slog.Logger) *httpClient {
	return &httpClient{
		client: &http.Client{
			Timeout: uploadTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
		log:     log.With(slog.String("component", "http_client")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload отправляет единицу выгрузки. Ответ бэкенда с ошибкой
// возвращается как *collection.UploadError.
func (h *httpClient) Upload(ctx context.Context, unit collection.Unit) error {
	path, body, err := uploadRequest(unit)
	if err != nil {
		return err
	}

	resp, err := h.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", collection.ErrNetworkUnreachable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return uploadError(resp.StatusCode, raw)
	}

	// выгрузку подтверждает только конверт с success:true
	var out sale.SaleResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("%w: unconfirmed upload, status %d: %w", collection.ErrNetworkUnreachable, resp.StatusCode, err)
	}
	if !out.Success {
		return uploadError(resp.StatusCode, raw)
	}

	h.log.Debug("unit uploaded",
		slog.String("path", path),
		slog.Int("records", unit.Len()),
		slog.String("id", out.ID),
	)
	return nil
}

// Authorization запрашивает состояние авторизации по отпечатку.
// Ошибка означает, что ответ не позволяет судить об авторизации.
func (h *httpClient) Authorization(ctx context.Context, fingerprint string) (AuthorizationResult, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/devices/fingerprint/"+url.PathEscape(fingerprint), nil)
	if err != nil {
		return AuthorizationResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return AuthorizationResult{}, fmt.Errorf("authorization check: server status %d", resp.StatusCode)
	}

	var body struct {
		Success *bool `json:"success"`
		Data    *struct {
			Authorized  *int   `json:"authorized"`
			CompanyName string `json:"company_name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return AuthorizationResult{}, fmt.Errorf("authorization check: malformed response: %w", err)
	}
	if body.Success == nil {
		return AuthorizationResult{}, fmt.Errorf("authorization check: malformed response: status %d", resp.StatusCode)
	}
	if !*body.Success {
		return AuthorizationResult{Authorized: false}, nil
	}
	if body.Data == nil || body.Data.Authorized == nil {
		return AuthorizationResult{}, errors.New("authorization check: missing data")
	}

	return AuthorizationResult{
		Authorized:  *body.Data.Authorized == 1,
		CompanyName: body.Data.CompanyName,
	}, nil
}

// Version возвращает HTTP-статус GET /api/version
func (h *httpClient) Version(ctx context.Context) (int, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/version", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// RegisterDevice регистрирует устройство; бэкенд оставляет его неодобренным
func (h *httpClient) RegisterDevice(ctx context.Context, req device.RegisterRequest) error {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/devices", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", collection.ErrNetworkUnreachable, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return uploadError(resp.StatusCode, raw)
	}
	return nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	h.log.Debug("sending request", slog.String("method", method), slog.String("url", req.URL.String()))

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	return resp, nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", collection.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", collection.ErrNetworkUnreachable, err)
}

// uploadError разбирает конверт {success, message, code} или problem+json от huma
func uploadError(status int, raw []byte) error {
	var body struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Detail  string `json:"detail"`
		Title   string `json:"title"`
	}
	_ = json.Unmarshal(raw, &body)

	msg := body.Message
	if msg == "" {
		msg = body.Detail
	}
	if msg == "" {
		msg = body.Title
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	return &collection.UploadError{Status: status, Code: body.Code, Message: msg}
}

// uploadRequest выбирает конечную точку и тело запроса для единицы выгрузки
func uploadRequest(unit collection.Unit) (string, any, error) {
	if unit.IsBatch() {
		return "/api/store-sales/batch", batchRequest(unit.Batch), nil
	}
	if unit.Single == nil {
		return "", nil, errors.New("empty upload unit")
	}

	rec := unit.Single
	p := rec.Payload
	switch rec.Type {
	case collection.TypeMilkCollection:
		return "/api/milk-collections", sale.CollectionRequest{
			TransactionRef:    p.TransactionRef,
			FarmerID:          p.FarmerID,
			FarmerName:        p.FarmerName,
			Route:             p.Route,
			Session:           p.Session,
			Quantity:          p.Quantity,
			UserID:            p.UserID,
			ClerkName:         p.ClerkName,
			Season:            p.Season,
			WeightSource:      p.WeightSource,
			DeviceFingerprint: p.DeviceFingerprint,
			CapturedAt:        p.CapturedAt,
		}, nil
	case collection.TypeStoreSale:
		return "/api/store-sales", saleRequest(p), nil
	case collection.TypeAISale:
		return "/api/ai-sales", saleRequest(p), nil
	}
	return "", nil, fmt.Errorf("%w: unknown type %q", collection.ErrInvalidRecord, rec.Type)
}

func saleRequest(p collection.Payload) sale.SaleRequest {
	return sale.SaleRequest{
		TransactionRef:    p.TransactionRef,
		UploadRef:         p.UploadRef,
		FarmerID:          p.FarmerID,
		FarmerName:        p.FarmerName,
		Route:             p.Route,
		ItemCode:          p.ItemCode,
		ItemName:          p.ItemName,
		Quantity:          p.Quantity,
		Price:             p.Price,
		UserID:            p.UserID,
		SoldBy:            p.ClerkName,
		Season:            p.Season,
		Photo:             p.Photo,
		DeviceFingerprint: p.DeviceFingerprint,
		CapturedAt:        p.CapturedAt,
	}
}

func batchRequest(b *collection.UploadBatch) sale.BatchSaleRequest {
	items := make([]sale.SaleItem, 0, len(b.Items))
	for _, rec := range b.Items {
		items = append(items, sale.SaleItem{
			TransactionRef: rec.Payload.TransactionRef,
			ItemCode:       rec.Payload.ItemCode,
			ItemName:       rec.Payload.ItemName,
			Quantity:       rec.Payload.Quantity,
			Price:          rec.Payload.Price,
		})
	}

	return sale.BatchSaleRequest{
		UploadRef:         b.UploadRef,
		FarmerID:          b.Meta.FarmerID,
		FarmerName:        b.Meta.FarmerName,
		Route:             b.Meta.Route,
		UserID:            b.Meta.UserID,
		SoldBy:            b.Meta.ClerkName,
		Season:            b.Meta.Season,
		Photo:             b.Photo,
		DeviceFingerprint: b.Meta.DeviceFingerprint,
		Items:             items,
	}
}
