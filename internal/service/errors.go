package service

import (
	"errors"
	"fmt"

	"github.com/dailit/dailit-server/internal/repository"
)

// Error categories surfaced to callers. Store categories are shared with the
// repository so errors.Is works across both layers.
var (
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("invalid email or password")
	ErrUnknownAdmin  = errors.New("admin account no longer exists")
	ErrNotFound      = repository.ErrNotFound
	ErrConflict      = repository.ErrConflict
	ErrAccess        = repository.ErrAccess
	ErrConfiguration = repository.ErrConfiguration
	ErrUnavailable   = repository.ErrUnavailable
)

// ValidationError is a user input problem detected before touching the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
