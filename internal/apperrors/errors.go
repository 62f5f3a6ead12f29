package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel error categories. Services wrap these with context via the
// helpers below; handlers map them to HTTP statuses with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUpstream      = errors.New("upstream error")
)

func Configuration(format string, args ...any) error {
	return wrap(ErrConfiguration, format, args...)
}

func Forbidden(format string, args ...any) error {
	return wrap(ErrForbidden, format, args...)
}

func Quota(format string, args ...any) error {
	return wrap(ErrQuotaExceeded, format, args...)
}

func NotFound(entity string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, entity)
}

func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

// Upstream marks a failed call to an external collaborator (render worker,
// OAuth provider, reddit). Timeouts land here too.
func Upstream(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstream, msg, err)
	}
	return fmt.Errorf("%w: %s", ErrUpstream, msg)
}

func wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
