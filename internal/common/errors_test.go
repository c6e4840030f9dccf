package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_IsAndAs(t *testing.T) {
	err := fmt.Errorf("register: %w", NewValidationError("Invalid email format"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrAccountLocked))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Invalid email format", ve.Reason)
	assert.Equal(t, "register: Invalid email format", err.Error())
}

func TestLockedError_IsAndMessage(t *testing.T) {
	until := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	err := error(&LockedError{Until: until})

	assert.True(t, errors.Is(err, ErrAccountLocked))
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
	assert.Equal(t, "account locked until 2026-03-01 12:30:00 UTC", err.Error())

	var le *LockedError
	require.True(t, errors.As(err, &le))
	assert.True(t, le.Until.Equal(until))
}
