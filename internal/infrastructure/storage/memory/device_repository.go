package memory

import (
	"context"
	"sync"
	"time"

	"milkcollect/internal/domain/device"
)

// DeviceRepository хранит устройства в памяти; для локальной разработки и тестов
type DeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]device.Device
}

func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{devices: make(map[string]device.Device)}
}

func (r *DeviceRepository) Get(_ context.Context, fingerprint string) (device.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[fingerprint]
	if !ok {
		return device.Device{}, device.ErrNotFound
	}
	return d, nil
}

func (r *DeviceRepository) Create(_ context.Context, d device.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[d.Fingerprint]; ok {
		return device.ErrAlreadyExists
	}
	r.devices[d.Fingerprint] = d
	return nil
}

func (r *DeviceRepository) Approve(_ context.Context, fingerprint, companyName, uniqueDevCode string) (device.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[fingerprint]
	if !ok {
		return device.Device{}, device.ErrNotFound
	}
	d.Approved = true
	d.CompanyName = companyName
	if d.UniqueDevCode == "" {
		d.UniqueDevCode = uniqueDevCode
	}
	d.UpdatedAt = time.Now().UTC()
	r.devices[fingerprint] = d
	return d, nil
}
