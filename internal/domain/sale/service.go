package sale

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

// DeviceChecker проверяет, одобрено ли устройство
type DeviceChecker interface {
	IsApproved(ctx context.Context, fingerprint string) (bool, error)
}

type Servicer interface {
	CreateCollection(ctx context.Context, req CollectionRequest) (string, error)
	CreateSale(ctx context.Context, kind Kind, req SaleRequest) (string, error)
	CreateBatch(ctx context.Context, req BatchSaleRequest) (string, error)
}

type Service struct {
	repo    Repository
	devices DeviceChecker
	log     *slog.Logger
}

func NewService(repo Repository, devices DeviceChecker, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		devices: devices,
		log:     log,
	}
}

func (s *Service) CreateCollection(ctx context.Context, req CollectionRequest) (string, error) {
	if err := s.authorize(ctx, req.DeviceFingerprint); err != nil {
		return "", err
	}
	if req.Quantity <= 0 {
		return "", fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	id, err := s.repo.SaveCollection(ctx, Collection{
		TransactionRef:    req.TransactionRef,
		FarmerID:          req.FarmerID,
		FarmerName:        req.FarmerName,
		Route:             req.Route,
		Session:           req.Session,
		Quantity:          req.Quantity,
		UserID:            req.UserID,
		ClerkName:         req.ClerkName,
		Season:            req.Season,
		WeightSource:      req.WeightSource,
		DeviceFingerprint: req.DeviceFingerprint,
		CapturedAt:        req.CapturedAt,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	s.log.Debug("milk collection accepted", "transaction_ref", req.TransactionRef, "farmer_id", req.FarmerID)
	return id, nil
}

func (s *Service) CreateSale(ctx context.Context, kind Kind, req SaleRequest) (string, error) {
	if kind != KindStore && kind != KindAI {
		return "", fmt.Errorf("%w: unknown sale kind %q", ErrInvalidInput, kind)
	}
	if err := s.authorize(ctx, req.DeviceFingerprint); err != nil {
		return "", err
	}

	id, err := s.repo.SaveSale(ctx, Sale{
		Kind:              kind,
		TransactionRef:    req.TransactionRef,
		UploadRef:         req.UploadRef,
		FarmerID:          req.FarmerID,
		FarmerName:        req.FarmerName,
		Route:             req.Route,
		ItemCode:          req.ItemCode,
		ItemName:          req.ItemName,
		Quantity:          req.Quantity,
		Price:             req.Price,
		UserID:            req.UserID,
		SoldBy:            req.SoldBy,
		Season:            req.Season,
		Photo:             req.Photo,
		DeviceFingerprint: req.DeviceFingerprint,
		CapturedAt:        req.CapturedAt,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	s.log.Debug("sale accepted", "kind", kind, "transaction_ref", req.TransactionRef)
	return id, nil
}

// CreateBatch принимает пакет продаж магазина; фото пакета прикрепляется к первой позиции
func (s *Service) CreateBatch(ctx context.Context, req BatchSaleRequest) (string, error) {
	if err := s.authorize(ctx, req.DeviceFingerprint); err != nil {
		return "", err
	}
	if len(req.Items) == 0 {
		return "", fmt.Errorf("%w: batch has no items", ErrInvalidInput)
	}

	now := time.Now().UTC()
	b := Batch{UploadRef: req.UploadRef, Sales: make([]Sale, 0, len(req.Items))}
	for i, item := range req.Items {
		sl := Sale{
			Kind:              KindStore,
			TransactionRef:    item.TransactionRef,
			UploadRef:         req.UploadRef,
			FarmerID:          req.FarmerID,
			FarmerName:        req.FarmerName,
			Route:             req.Route,
			ItemCode:          item.ItemCode,
			ItemName:          item.ItemName,
			Quantity:          item.Quantity,
			Price:             item.Price,
			UserID:            req.UserID,
			SoldBy:            req.SoldBy,
			Season:            req.Season,
			DeviceFingerprint: req.DeviceFingerprint,
			CreatedAt:         now,
		}
		if i == 0 {
			sl.Photo = req.Photo
		}
		b.Sales = append(b.Sales, sl)
	}

	if err := s.repo.SaveBatch(ctx, b); err != nil {
		return "", err
	}

	s.log.Debug("sale batch accepted", "upload_ref", req.UploadRef, "items", len(req.Items))
	return req.UploadRef, nil
}

func (s *Service) authorize(ctx context.Context, fingerprint string) error {
	ok, err := s.devices.IsApproved(ctx, fingerprint)
	if err != nil {
		return fmt.Errorf("check device: %w", err)
	}
	if !ok {
		return ErrDeviceNotAuthorized
	}
	return nil
}
