package sale

import "errors"

var (
	ErrDuplicate           = errors.New("transaction already exists")
	ErrDeviceNotAuthorized = errors.New("device not authorized")
	ErrInvalidInput        = errors.New("invalid input")
)
