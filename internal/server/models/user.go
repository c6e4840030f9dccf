// Package models holds the persisted account record and the typed partial
// update applied to it.
package models

import (
	"errors"
	"time"
)

// User is one account as stored by the credential store.
type User struct {
	ID                  string
	Email               string
	DisplayName         string
	PasswordHash        string
	MFASecret           string
	MFAEnabled          bool
	CreatedAt           time.Time
	LastLoginAt         *time.Time
	FailedLoginAttempts int
	LockedUntil         *time.Time
}

// PublicUser is the view of a User that may leave the service.
type PublicUser struct {
	ID          string
	Email       string
	DisplayName string
	MFAEnabled  bool
}

// Public strips credentials and counters.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		MFAEnabled:  u.MFAEnabled,
	}
}

var ErrInconsistentMFA = errors.New("mfa cannot be enabled without a secret")

// UserUpdate is the closed set of fields an update may touch. Nil pointers
// leave the column unchanged; the Clear* flags null the column.
type UserUpdate struct {
	DisplayName         *string
	PasswordHash        *string
	MFASecret           *string
	ClearMFASecret      bool
	MFAEnabled          *bool
	LastLoginAt         *time.Time
	FailedLoginAttempts *int
	LockedUntil         *time.Time
	ClearLockedUntil    bool
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.DisplayName == nil &&
		u.PasswordHash == nil &&
		u.MFASecret == nil && !u.ClearMFASecret &&
		u.MFAEnabled == nil &&
		u.LastLoginAt == nil &&
		u.FailedLoginAttempts == nil &&
		u.LockedUntil == nil && !u.ClearLockedUntil
}

// Validate rejects updates that are contradictory on their own. Whether the
// result keeps mfa_enabled paired with a secret depends on the stored row
// and is checked by Apply.
func (u UserUpdate) Validate() error {
	if u.MFASecret != nil && u.ClearMFASecret {
		return errors.New("mfa secret both set and cleared")
	}
	if u.LockedUntil != nil && u.ClearLockedUntil {
		return errors.New("locked_until both set and cleared")
	}
	if u.FailedLoginAttempts != nil && *u.FailedLoginAttempts < 0 {
		return errors.New("failed login attempts must be non-negative")
	}
	if u.MFAEnabled != nil && *u.MFAEnabled && (u.ClearMFASecret || (u.MFASecret != nil && *u.MFASecret == "")) {
		return ErrInconsistentMFA
	}
	return nil
}

// Apply returns a copy of user with the update applied.
func (u UserUpdate) Apply(user User) (User, error) {
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	if u.DisplayName != nil {
		user.DisplayName = *u.DisplayName
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
	if u.MFASecret != nil {
		user.MFASecret = *u.MFASecret
	}
	if u.ClearMFASecret {
		user.MFASecret = ""
	}
	if u.MFAEnabled != nil {
		user.MFAEnabled = *u.MFAEnabled
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		user.LastLoginAt = &t
	}
	if u.FailedLoginAttempts != nil {
		user.FailedLoginAttempts = *u.FailedLoginAttempts
	}
	if u.LockedUntil != nil {
		t := *u.LockedUntil
		user.LockedUntil = &t
	}
	if u.ClearLockedUntil {
		user.LockedUntil = nil
	}
	if user.MFAEnabled && user.MFASecret == "" {
		return User{}, ErrInconsistentMFA
	}
	return user, nil
}

// Ptr returns a pointer to v. Handy for building UserUpdate literals.
func Ptr[T any](v T) *T {
	return &v
}
