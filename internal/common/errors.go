package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Input errors. Wrapped by ValidationError, match with errors.Is.
	ErrValidation = errors.New("validation error")

	// Account lifecycle errors.
	ErrAlreadyRegistered  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidMFACode     = errors.New("invalid mfa code")
	ErrAccountLocked      = errors.New("account locked")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError reports malformed or missing input together with a
// human-readable reason that is safe to show to the caller.
type ValidationError struct {
	Reason string
}

// NewValidationError returns a *ValidationError with the given reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LockedError is returned while an account is locked out. Until is the
// moment the lock expires.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked until %s UTC", e.Until.UTC().Format("2006-01-02 15:04:05"))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
