// Package store persists user records behind the CredentialStore interface.
// PostgresStore is the production implementation; MemoryStore backs tests
// and single-process tools.
package store

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// MutateFunc inspects the current record and returns the fields to change.
// Returning an error aborts the update and leaves the record untouched.
type MutateFunc func(u models.User) (models.UserUpdate, error)

type CredentialStore interface {
	// FindByEmail returns common.ErrorNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	// Create fails with common.ErrAlreadyRegistered when the email is taken.
	Create(ctx context.Context, email, displayName, passwordHash, mfaSecret string, opts ...CreateOption) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) error
	// UpdateFunc runs fn and applies its update as one atomic step with
	// respect to other writers of the same record.
	UpdateFunc(ctx context.Context, id string, fn MutateFunc) (*models.User, error)
}

// CreateOption adjusts a new record before it is written.
type CreateOption func(u *models.User)

// WithMFAEnabled creates the account with MFA already on. The secret passed
// to Create must be non-empty.
func WithMFAEnabled() CreateOption {
	return func(u *models.User) { u.MFAEnabled = true }
}

// newUser builds the record Create writes and checks it is consistent.
func newUser(email, displayName, passwordHash, mfaSecret string, opts []CreateOption) (*models.User, error) {
	u := &models.User{
		Email:        NormalizeEmail(email),
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		MFASecret:    mfaSecret,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.MFAEnabled && u.MFASecret == "" {
		return nil, models.ErrInconsistentMFA
	}
	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
