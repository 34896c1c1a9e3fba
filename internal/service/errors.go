package service

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)

	ErrUserAlreadyExists  = fmt.Errorf("user already exists: %w", ErrConflict)
	ErrAdminAlreadyExists = fmt.Errorf("admin already exists: %w", ErrConflict)
	ErrOrderAlreadyExists = fmt.Errorf("order already exists: %w", ErrConflict)

	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
)

// ValidationError carries every rule the input broke.
type ValidationError struct {
	Problems []string
}

func newValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
