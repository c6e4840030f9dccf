// Package admin bootstraps operator accounts directly against the
// credential store, outside the public API.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/mfa"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/store"
	"github.com/go-playground/validator/v10"
)

const (
	QuickEmail = "admin@example.com"
	QuickName  = "Admin User"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

type Options struct {
	Email     string
	Name      string
	EnableMFA bool
	// Quick creates QuickEmail with a generated password and no prompts.
	Quick bool
}

type Bootstrapper struct {
	store    store.CredentialStore
	hasher   password.Hasher
	mfa      *mfa.Provisioner
	issuer   string
	in       *bufio.Reader
	out      io.Writer
	validate *validator.Validate
}

func NewBootstrapper(st store.CredentialStore, hasher password.Hasher, provisioner *mfa.Provisioner, issuer string, in io.Reader, out io.Writer) *Bootstrapper {
	return &Bootstrapper{
		store:    st,
		hasher:   hasher,
		mfa:      provisioner,
		issuer:   issuer,
		in:       bufio.NewReader(in),
		out:      out,
		validate: validator.New(),
	}
}

func (b *Bootstrapper) Run(ctx context.Context, opts Options) error {
	if opts.Quick {
		return b.quick(ctx)
	}
	return b.interactive(ctx, opts)
}

func (b *Bootstrapper) quick(ctx context.Context) error {
	fmt.Fprintln(b.out, "Quick admin setup")

	if _, err := b.store.FindByEmail(ctx, QuickEmail); err == nil {
		fmt.Fprintf(b.out, "User %s already exists, nothing to do\n", QuickEmail)
		return nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	pw, err := generatePassword()
	if err != nil {
		return err
	}
	hash, err := b.hasher.Hash(pw)
	if err != nil {
		return err
	}
	if _, err := b.store.Create(ctx, QuickEmail, QuickName, hash, ""); err != nil {
		return err
	}

	fmt.Fprintf(b.out, "Admin user created\n  Email:    %s\n  Password: %s\n", QuickEmail, pw)
	fmt.Fprintln(b.out, "Change this password after first login and enable MFA.")
	return nil
}

func (b *Bootstrapper) interactive(ctx context.Context, opts Options) error {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		var err error
		if name, err = GetSimpleText(b.in, "Enter full name", b.out); err != nil {
			return err
		}
	}
	if name == "" {
		return common.NewValidationError("Name is required")
	}

	email := store.NormalizeEmail(opts.Email)
	if email == "" {
		raw, err := GetSimpleText(b.in, "Enter email address", b.out)
		if err != nil {
			return err
		}
		email = store.NormalizeEmail(raw)
	}
	if err := b.validate.Var(email, "required,email"); err != nil {
		return common.NewValidationError("Invalid email format")
	}

	existing, err := b.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		reset, err := Confirm(b.in, fmt.Sprintf("User %s already exists. Reset password?", email), b.out)
		if err != nil {
			return err
		}
		if !reset {
			return nil
		}
	case !errors.Is(err, common.ErrorNotFound):
		return err
	}

	pw, err := b.readNewPassword()
	if err != nil {
		return err
	}
	hash, err := b.hasher.Hash(pw)
	if err != nil {
		return err
	}

	var secret string
	if opts.EnableMFA {
		if secret, err = b.mfa.GenerateSecret(); err != nil {
			return err
		}
	}

	if existing != nil {
		if err := b.store.Update(ctx, existing.ID, resetUpdate(name, hash, secret)); err != nil {
			return err
		}
		fmt.Fprintf(b.out, "User %s updated\n", email)
	} else {
		var opts []store.CreateOption
		if secret != "" {
			opts = append(opts, store.WithMFAEnabled())
		}
		if _, err := b.store.Create(ctx, email, name, hash, secret, opts...); err != nil {
			return err
		}
		fmt.Fprintf(b.out, "User %s created\n", email)
	}

	if secret != "" {
		b.printMFA(email, secret)
	}
	return nil
}

func (b *Bootstrapper) readNewPassword() (string, error) {
	pw, err := GetPassword("Enter password", b.out)
	if err != nil {
		return "", err
	}
	if ok, reason := password.Validate(pw); !ok {
		return "", common.NewValidationError(reason)
	}
	confirm, err := GetPassword("Confirm password", b.out)
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", ErrPasswordMismatch
	}
	return pw, nil
}

// resetUpdate rewrites the credentials and clears any lockout.
func resetUpdate(name, hash, secret string) models.UserUpdate {
	upd := models.UserUpdate{
		DisplayName:         &name,
		PasswordHash:        &hash,
		FailedLoginAttempts: models.Ptr(0),
		ClearLockedUntil:    true,
	}
	if secret != "" {
		upd.MFASecret = &secret
		upd.MFAEnabled = models.Ptr(true)
	} else {
		upd.ClearMFASecret = true
		upd.MFAEnabled = models.Ptr(false)
	}
	return upd
}

func (b *Bootstrapper) printMFA(email, secret string) {
	fmt.Fprintln(b.out, "MFA setup")
	fmt.Fprintf(b.out, "  Secret: %s\n", secret)
	fmt.Fprintf(b.out, "  URI:    %s\n", b.mfa.ProvisioningReference(secret, email, b.issuer))
	if code, err := b.mfa.CodeAt(secret, time.Now()); err == nil {
		fmt.Fprintf(b.out, "  Current code (for checking your app): %s\n", code)
	}
}

// generatePassword returns a random password that satisfies the policy.
func generatePassword() (string, error) {
	h, err := common.MakeRandHexString(8)
	if err != nil {
		return "", err
	}
	return "Gk7" + h + "!", nil
}
