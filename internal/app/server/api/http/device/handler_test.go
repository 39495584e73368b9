package device

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/device"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) GetAuthorization(ctx context.Context, fingerprint string) (device.AuthorizationData, error) {
	args := m.Called(ctx, fingerprint)
	return args.Get(0).(device.AuthorizationData), args.Error(1)
}

func (m *MockService) Register(ctx context.Context, req device.RegisterRequest) (device.Device, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(device.Device), args.Error(1)
}

func (m *MockService) Approve(ctx context.Context, fingerprint string, req device.ApproveRequest) (device.Device, error) {
	args := m.Called(ctx, fingerprint, req)
	return args.Get(0).(device.Device), args.Error(1)
}

func (m *MockService) IsApproved(ctx context.Context, fingerprint string) (bool, error) {
	args := m.Called(ctx, fingerprint)
	return args.Bool(0), args.Error(1)
}

const testFP = "0123456789abcdef0123456789abcdef"

func setup(t *testing.T, svc *MockService) humatest.TestAPI {
	_, api := humatest.New(t)
	NewHandler(svc, slog.Default(), huma.Middlewares{}, huma.Middlewares{}).SetupRoutes(api)
	return api
}

func TestHandler_Authorization(t *testing.T) {
	tests := []struct {
		name       string
		data       device.AuthorizationData
		err        error
		wantStatus int
		wantBody   []string
	}{
		{
			name:       "approved",
			data:       device.AuthorizationData{Authorized: 1, CompanyName: "Kiambu Dairy", UniqueDevCode: "DEV-1"},
			wantStatus: http.StatusOK,
			wantBody:   []string{`"success":true`, `"authorized":1`, `"company_name":"Kiambu Dairy"`, `"uniquedevcode":"DEV-1"`},
		},
		{
			name:       "pending",
			data:       device.AuthorizationData{Authorized: 0},
			wantStatus: http.StatusOK,
			wantBody:   []string{`"success":true`, `"authorized":0`},
		},
		{
			name:       "unknown device is an explicit negative",
			err:        device.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   []string{`"success":false`},
		},
		{
			name:       "internal error",
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("GetAuthorization", mock.Anything, testFP).Return(tt.data, tt.err)
			api := setup(t, svc)

			resp := api.Get("/api/devices/fingerprint/" + testFP)

			assert.Equal(t, tt.wantStatus, resp.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, resp.Body.String(), want)
			}
		})
	}
}

func TestHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Register", mock.Anything, device.RegisterRequest{Fingerprint: testFP, DeviceInfo: "Android"}).
			Return(device.Device{Fingerprint: testFP}, nil)
		api := setup(t, svc)

		resp := api.Post("/api/devices", map[string]any{
			"fingerprint": testFP,
			"device_info": "Android",
			"approved":    false,
		})

		assert.Equal(t, http.StatusCreated, resp.Code)
		assert.Contains(t, resp.Body.String(), "awaiting approval")
		svc.AssertExpectations(t)
	})

	t.Run("validation rejects short fingerprint", func(t *testing.T) {
		api := setup(t, new(MockService))

		resp := api.Post("/api/devices", map[string]any{"fingerprint": "short"})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestHandler_Approve(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"approved", nil, http.StatusOK},
		{"not found", device.ErrNotFound, http.StatusNotFound},
		{"invalid", device.ErrInvalidInput, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Approve", mock.Anything, testFP, device.ApproveRequest{CompanyName: "Coop"}).
				Return(device.Device{Fingerprint: testFP, Approved: true, CompanyName: "Coop"}, tt.err)
			api := setup(t, svc)

			resp := api.Post("/api/devices/"+testFP+"/approve", map[string]any{"company_name": "Coop"})

			assert.Equal(t, tt.wantStatus, resp.Code)
		})
	}
}
