package device

import "time"

// Device полевое устройство, идентифицируемое отпечатком
type Device struct {
	Fingerprint   string
	UserID        string
	DeviceInfo    string
	Approved      bool
	CompanyName   string
	UniqueDevCode string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
