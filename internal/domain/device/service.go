package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const minFingerprintLen = 16

type Servicer interface {
	GetAuthorization(ctx context.Context, fingerprint string) (AuthorizationData, error)
	Register(ctx context.Context, req RegisterRequest) (Device, error)
	Approve(ctx context.Context, fingerprint string, req ApproveRequest) (Device, error)
	IsApproved(ctx context.Context, fingerprint string) (bool, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

func (s *Service) GetAuthorization(ctx context.Context, fingerprint string) (AuthorizationData, error) {
	d, err := s.repo.Get(ctx, fingerprint)
	if err != nil {
		return AuthorizationData{}, err
	}
	return toAuthorizationData(d), nil
}

// Register регистрирует устройство как ожидающее одобрения.
// Повторная регистрация того же отпечатка возвращает существующее устройство.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Device, error) {
	fp := strings.TrimSpace(req.Fingerprint)
	if len(fp) < minFingerprintLen {
		return Device{}, fmt.Errorf("%w: fingerprint too short", ErrInvalidInput)
	}

	existing, err := s.repo.Get(ctx, fp)
	if err == nil {
		s.log.Debug("device already registered", "fingerprint", fp)
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Device{}, fmt.Errorf("lookup device: %w", err)
	}

	now := time.Now().UTC()
	d := Device{
		Fingerprint: fp,
		UserID:      req.UserID,
		DeviceInfo:  req.DeviceInfo,
		Approved:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return s.repo.Get(ctx, fp)
		}
		return Device{}, fmt.Errorf("create device: %w", err)
	}

	s.log.Info("device registered", "fingerprint", fp)
	return d, nil
}

func (s *Service) Approve(ctx context.Context, fingerprint string, req ApproveRequest) (Device, error) {
	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		return Device{}, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}

	code := "DEV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	d, err := s.repo.Approve(ctx, fingerprint, company, code)
	if err != nil {
		return Device{}, err
	}

	s.log.Info("device approved", "fingerprint", fingerprint, "company", company)
	return d, nil
}

func (s *Service) IsApproved(ctx context.Context, fingerprint string) (bool, error) {
	d, err := s.repo.Get(ctx, fingerprint)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d.Approved, nil
}
