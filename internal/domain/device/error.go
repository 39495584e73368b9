package device

import "errors"

var (
	ErrNotFound      = errors.New("device not found")
	ErrAlreadyExists = errors.New("device already exists")
	ErrInvalidInput  = errors.New("invalid input")
)
