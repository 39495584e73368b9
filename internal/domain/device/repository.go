package device

import "context"

type Repository interface {
	Get(ctx context.Context, fingerprint string) (Device, error)
	Create(ctx context.Context, d Device) error
	Approve(ctx context.Context, fingerprint, companyName, uniqueDevCode string) (Device, error)
}
