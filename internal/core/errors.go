package core

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("room not found")
	ErrValidation = errors.New("validation failed")
	// ErrRoomClosed is returned to callers racing a delete; it is a NotFound.
	ErrRoomClosed = fmt.Errorf("room closed: %w", ErrNotFound)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
