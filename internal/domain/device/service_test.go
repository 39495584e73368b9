package device

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Get(ctx context.Context, fingerprint string) (Device, error) {
	args := m.Called(ctx, fingerprint)
	return args.Get(0).(Device), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, d Device) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockRepository) Approve(ctx context.Context, fingerprint, companyName, uniqueDevCode string) (Device, error) {
	args := m.Called(ctx, fingerprint, companyName, uniqueDevCode)
	return args.Get(0).(Device), args.Error(1)
}

const testFP = "0123456789abcdef0123456789abcdef"

func TestService_GetAuthorization(t *testing.T) {
	tests := []struct {
		name      string
		device    Device
		repoErr   error
		want      AuthorizationData
		wantErrIs error
	}{
		{
			name:   "approved device",
			device: Device{Fingerprint: testFP, Approved: true, CompanyName: "Kiambu Dairy", UniqueDevCode: "DEV-1"},
			want:   AuthorizationData{Authorized: 1, CompanyName: "Kiambu Dairy", UniqueDevCode: "DEV-1"},
		},
		{
			name:   "pending device",
			device: Device{Fingerprint: testFP},
			want:   AuthorizationData{Authorized: 0},
		},
		{
			name:      "unknown device",
			repoErr:   ErrNotFound,
			wantErrIs: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("Get", mock.Anything, testFP).Return(tt.device, tt.repoErr)
			s := NewService(repo, slog.Default())

			got, err := s.GetAuthorization(context.Background(), testFP)

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Register(t *testing.T) {
	t.Run("new device is pending", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Get", mock.Anything, testFP).Return(Device{}, ErrNotFound)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(d Device) bool {
			return d.Fingerprint == testFP && !d.Approved && d.DeviceInfo == "Android 13"
		})).Return(nil)
		s := NewService(repo, slog.Default())

		d, err := s.Register(context.Background(), RegisterRequest{Fingerprint: testFP, DeviceInfo: "Android 13"})

		require.NoError(t, err)
		assert.False(t, d.Approved)
		repo.AssertExpectations(t)
	})

	t.Run("existing device is returned unchanged", func(t *testing.T) {
		repo := new(MockRepository)
		existing := Device{Fingerprint: testFP, Approved: true, CompanyName: "Coop"}
		repo.On("Get", mock.Anything, testFP).Return(existing, nil)
		s := NewService(repo, slog.Default())

		d, err := s.Register(context.Background(), RegisterRequest{Fingerprint: testFP})

		require.NoError(t, err)
		assert.Equal(t, existing, d)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("short fingerprint rejected", func(t *testing.T) {
		repo := new(MockRepository)
		s := NewService(repo, slog.Default())

		_, err := s.Register(context.Background(), RegisterRequest{Fingerprint: "short"})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Get", mock.Anything, testFP).Return(Device{}, errors.New("db down"))
		s := NewService(repo, slog.Default())

		_, err := s.Register(context.Background(), RegisterRequest{Fingerprint: testFP})

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidInput)
	})
}

func TestService_Approve(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Approve", mock.Anything, testFP, "Kiambu Dairy", mock.AnythingOfType("string")).
		Return(Device{Fingerprint: testFP, Approved: true, CompanyName: "Kiambu Dairy"}, nil)
	s := NewService(repo, slog.Default())

	d, err := s.Approve(context.Background(), testFP, ApproveRequest{CompanyName: " Kiambu Dairy "})

	require.NoError(t, err)
	assert.True(t, d.Approved)
	repo.AssertExpectations(t)

	_, err = s.Approve(context.Background(), testFP, ApproveRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_IsApproved(t *testing.T) {
	tests := []struct {
		name    string
		device  Device
		repoErr error
		want    bool
		wantErr bool
	}{
		{"approved", Device{Approved: true}, nil, true, false},
		{"pending", Device{}, nil, false, false},
		{"unknown", Device{}, ErrNotFound, false, false},
		{"failure", Device{}, errors.New("db down"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("Get", mock.Anything, testFP).Return(tt.device, tt.repoErr)
			s := NewService(repo, slog.Default())

			got, err := s.IsApproved(context.Background(), testFP)

			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.want, got)
		})
	}
}
