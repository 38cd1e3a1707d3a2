package service

import "errors"

// Errors returned by the services. Handlers map them to status codes with
// errors.Is; the wrapped text is safe to show to clients except for
// ErrStorage.
var (
	ErrValidation         = errors.New("validation error")
	ErrDuplicateField     = errors.New("duplicate field")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("user not logged in")
	ErrForbidden          = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrStorage            = errors.New("storage error")
)
