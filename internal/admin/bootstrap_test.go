package admin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/mfa"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	i := 0
	readPassword = func() ([]byte, error) {
		pw := pws[i%len(pws)]
		i++
		return []byte(pw), nil
	}
}

func newBootstrapper(t *testing.T, st store.CredentialStore, input string) (*Bootstrapper, *bytes.Buffer, password.Hasher) {
	t.Helper()
	hasher, err := password.NewArgon2(password.Argon2Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	var out bytes.Buffer
	return NewBootstrapper(st, hasher, mfa.NewProvisioner(), "Data Cleaner", strings.NewReader(input), &out), &out, hasher
}

func TestQuick_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	b, out, hasher := newBootstrapper(t, st, "")

	require.NoError(t, b.Run(ctx, Options{Quick: true}))
	u, err := st.FindByEmail(ctx, QuickEmail)
	require.NoError(t, err)
	assert.Equal(t, QuickName, u.DisplayName)
	assert.False(t, u.MFAEnabled)
	assert.Empty(t, u.MFASecret)

	var generated string
	for _, line := range strings.Split(out.String(), "\n") {
		if after, ok := strings.CutPrefix(strings.TrimSpace(line), "Password:"); ok {
			generated = strings.TrimSpace(after)
		}
	}
	require.NotEmpty(t, generated)
	ok, _ := password.Validate(generated)
	assert.True(t, ok)
	ok, err = hasher.Verify(generated, u.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	out.Reset()
	require.NoError(t, b.Run(ctx, Options{Quick: true}))
	assert.Contains(t, out.String(), "already exists")
}

func TestInteractive_CreateWithMFA(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	setupPasswords(t, "Str0ng!Pass")
	b, out, _ := newBootstrapper(t, st, "Ops Admin\nOps@Example.com\n")

	require.NoError(t, b.Run(ctx, Options{EnableMFA: true}))

	u, err := st.FindByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ops Admin", u.DisplayName)
	assert.True(t, u.MFAEnabled)
	require.NotEmpty(t, u.MFASecret)
	assert.Contains(t, out.String(), u.MFASecret)
	assert.Contains(t, out.String(), "otpauth://totp/")
}

type createOnlyStore struct {
	*store.MemoryStore
	updates int
}

func (s *createOnlyStore) Update(context.Context, string, models.UserUpdate) error {
	s.updates++
	return errors.New("update not allowed")
}

func TestInteractive_CreateWithMFAIsSingleWrite(t *testing.T) {
	ctx := context.Background()
	st := &createOnlyStore{MemoryStore: store.NewMemoryStore()}
	setupPasswords(t, "Str0ng!Pass")
	b, _, _ := newBootstrapper(t, st, "")

	require.NoError(t, b.Run(ctx, Options{Email: "ops@example.com", Name: "Ops", EnableMFA: true}))
	assert.Zero(t, st.updates)

	u, err := st.FindByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.True(t, u.MFAEnabled)
	assert.NotEmpty(t, u.MFASecret)
}

func TestInteractive_FlagsSkipPrompts(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	setupPasswords(t, "Str0ng!Pass")
	b, _, _ := newBootstrapper(t, st, "")

	require.NoError(t, b.Run(ctx, Options{Email: "root@example.com", Name: "Root"}))
	u, err := st.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.False(t, u.MFAEnabled)
}

func TestInteractive_ResetExisting(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	existing, err := st.Create(ctx, "ops@example.com", "Old", "old-hash", "OLDSECRET")
	require.NoError(t, err)
	locked := time.Now().Add(time.Hour)
	require.NoError(t, st.Update(ctx, existing.ID, models.UserUpdate{
		MFAEnabled:          models.Ptr(true),
		FailedLoginAttempts: models.Ptr(5),
		LockedUntil:         &locked,
	}))

	setupPasswords(t, "N3w!Password")
	b, _, hasher := newBootstrapper(t, st, "y\n")
	require.NoError(t, b.Run(ctx, Options{Email: "ops@example.com", Name: "New"}))

	u, err := st.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", u.DisplayName)
	assert.False(t, u.MFAEnabled)
	assert.Empty(t, u.MFASecret)
	assert.Zero(t, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)
	ok, err := hasher.Verify("N3w!Password", u.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInteractive_DeclineReset(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_, err := st.Create(ctx, "ops@example.com", "Old", "old-hash", "")
	require.NoError(t, err)

	b, _, _ := newBootstrapper(t, st, "n\n")
	require.NoError(t, b.Run(ctx, Options{Email: "ops@example.com", Name: "New"}))

	u, err := st.FindByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, "old-hash", u.PasswordHash)
}

func TestInteractive_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		input   string
		pws     []string
		wantErr error
	}{
		{"missing name", Options{Email: "a@example.com"}, "\n", nil, common.ErrValidation},
		{"bad email", Options{Name: "A", Email: "not-an-email"}, "", nil, common.ErrValidation},
		{"weak password", Options{Name: "A", Email: "a@example.com"}, "", []string{"short"}, common.ErrValidation},
		{"mismatch", Options{Name: "A", Email: "a@example.com"}, "", []string{"Str0ng!Pass", "Other!Pass1"}, ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.pws != nil {
				setupPasswords(t, tt.pws...)
			}
			st := store.NewMemoryStore()
			b, _, _ := newBootstrapper(t, st, tt.input)
			err := b.Run(context.Background(), tt.opts)
			require.ErrorIs(t, err, tt.wantErr)

			_, err = st.FindByEmail(context.Background(), "a@example.com")
			assert.ErrorIs(t, err, common.ErrorNotFound)
		})
	}
}
