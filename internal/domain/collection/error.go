package collection

import "errors"

var (
	ErrStorageUnavailable  = errors.New("local storage unavailable")
	ErrNotReady            = errors.New("local storage not ready")
	ErrNetworkUnreachable  = errors.New("network unreachable")
	ErrTimeout             = errors.New("request timed out")
	ErrAuthorizationDenied = errors.New("device authorization denied")
	ErrDuplicateOnServer   = errors.New("already recorded on server")
	ErrBackendStale        = errors.New("backend is outdated")
	ErrNoPrinterConnected  = errors.New("no printer connected")
	ErrScaleDisconnected   = errors.New("scale disconnected")
	ErrInvalidRecord       = errors.New("invalid record")
)

// UploadError ошибка выгрузки, возвращенная бэкендом
type UploadError struct {
	Status  int
	Code    string
	Message string
}

func (e *UploadError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
