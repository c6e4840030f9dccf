package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/lockout"
	"github.com/dmitrijs2005/gophauth/internal/server/mfa"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/store"
	"github.com/go-playground/validator/v10"
)

const DefaultMFAIssuer = "Data Cleaner"

type RegisterRequest struct {
	Email       string
	DisplayName string
	Password    string
}

// RegisterResult carries the enrollment material for the new account.
type RegisterResult struct {
	MFASecret       string
	ProvisioningURI string
}

type CompleteRegistrationRequest struct {
	Email       string
	DisplayName string
	Password    string
	MFASecret   string
}

type LoginRequest struct {
	Email    string
	Password string
	MFACode  string
}

type AuthResult struct {
	Token string
	User  models.PublicUser
}

// LoginResult has MFARequired set, and no token, when the password was
// correct but a one-time code must follow.
type LoginResult struct {
	AuthResult
	MFARequired bool
}

type AuthService struct {
	store    store.CredentialStore
	hasher   password.Hasher
	mfa      *mfa.Provisioner
	tokens   *auth.TokenService
	lockout  lockout.Policy
	issuer   string
	validate *validator.Validate
	log      logging.Logger
	now      func() time.Time
}

type Option func(*AuthService)

func WithLogger(l logging.Logger) Option {
	return func(s *AuthService) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func WithLockoutPolicy(p lockout.Policy) Option {
	return func(s *AuthService) { s.lockout = p }
}

// WithMFAIssuer sets the issuer label shown by authenticator apps.
func WithMFAIssuer(issuer string) Option {
	return func(s *AuthService) {
		if issuer != "" {
			s.issuer = issuer
		}
	}
}

func NewAuthService(st store.CredentialStore, hasher password.Hasher, provisioner *mfa.Provisioner, tokens *auth.TokenService, opts ...Option) *AuthService {
	s := &AuthService{
		store:    st,
		hasher:   hasher,
		mfa:      provisioner,
		tokens:   tokens,
		lockout:  lockout.NewPolicy(),
		issuer:   DefaultMFAIssuer,
		validate: validator.New(),
		log:      logging.NewNopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("module", "auth")
	return s
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	email := store.NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.DisplayName)

	if email == "" || name == "" || req.Password == "" {
		return nil, common.NewValidationError("All fields are required")
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, common.NewValidationError("Invalid email format")
	}

	_, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrAlreadyRegistered
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.internal(ctx, "lookup user", err)
	}

	if ok, reason := password.Validate(req.Password); !ok {
		return nil, common.NewValidationError(reason)
	}

	secret, err := s.mfa.GenerateSecret()
	if err != nil {
		return nil, s.internal(ctx, "generate mfa secret", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	user, err := s.store.Create(ctx, email, name, hash, secret)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyRegistered) {
			return nil, common.ErrAlreadyRegistered
		}
		return nil, s.internal(ctx, "create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)

	return &RegisterResult{
		MFASecret:       secret,
		ProvisioningURI: s.mfa.ProvisioningReference(secret, email, s.issuer),
	}, nil
}

// CompleteRegistration finalizes enrollment. A supplied MFA secret turns
// MFA on without a code check; an absent one turns it off and drops the
// provisional secret.
func (s *AuthService) CompleteRegistration(ctx context.Context, req CompleteRegistrationRequest) (*AuthResult, error) {
	email := store.NormalizeEmail(req.Email)
	if email == "" || strings.TrimSpace(req.DisplayName) == "" || req.Password == "" {
		return nil, common.NewValidationError("Missing registration data")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "lookup user", err)
	}

	secret := strings.TrimSpace(req.MFASecret)
	updated, err := s.store.UpdateFunc(ctx, user.ID, func(cur models.User) (models.UserUpdate, error) {
		if secret == "" {
			return models.UserUpdate{ClearMFASecret: true, MFAEnabled: models.Ptr(false)}, nil
		}
		upd := models.UserUpdate{MFAEnabled: models.Ptr(true)}
		if cur.MFASecret == "" {
			upd.MFASecret = &secret
		}
		return upd, nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "complete registration", err)
	}

	token, err := s.tokens.Issue(updated.ID, updated.Email)
	if err != nil {
		return nil, s.internal(ctx, "issue token", err)
	}

	s.log.Info(ctx, "registration completed", "user_id", updated.ID, "mfa_enabled", updated.MFAEnabled)

	return &AuthResult{Token: token, User: updated.Public()}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := store.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, common.NewValidationError("Email and password are required")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "lookup user", err)
	}

	now := s.now().UTC()
	if s.lockout.IsLocked(user.LockedUntil, now) {
		s.log.Warn(ctx, "login rejected, account locked", "user_id", user.ID)
		return nil, &common.LockedError{Until: *user.LockedUntil}
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, "verify password", err)
	}
	if !ok {
		return nil, s.registerFailure(ctx, user.ID, now)
	}

	if user.MFAEnabled && user.MFASecret != "" {
		if strings.TrimSpace(req.MFACode) == "" {
			return &LoginResult{MFARequired: true}, nil
		}
		if !s.mfa.VerifyAt(user.MFASecret, req.MFACode, now) {
			s.log.Info(ctx, "login rejected, invalid mfa code", "user_id", user.ID)
			return nil, common.ErrInvalidMFACode
		}
	}

	updated, err := s.store.UpdateFunc(ctx, user.ID, func(models.User) (models.UserUpdate, error) {
		attempts, _ := s.lockout.Reset()
		return models.UserUpdate{
			FailedLoginAttempts: &attempts,
			ClearLockedUntil:    true,
			LastLoginAt:         &now,
		}, nil
	})
	if err != nil {
		return nil, s.internal(ctx, "record login", err)
	}

	token, err := s.tokens.Issue(updated.ID, updated.Email)
	if err != nil {
		return nil, s.internal(ctx, "issue token", err)
	}

	s.log.Info(ctx, "login succeeded", "user_id", updated.ID)

	return &LoginResult{AuthResult: AuthResult{Token: token, User: updated.Public()}}, nil
}

// registerFailure applies the lockout transition against the freshly locked
// record so concurrent failures are all counted.
func (s *AuthService) registerFailure(ctx context.Context, userID string, now time.Time) error {
	updated, err := s.store.UpdateFunc(ctx, userID, func(cur models.User) (models.UserUpdate, error) {
		if s.lockout.IsLocked(cur.LockedUntil, now) {
			return models.UserUpdate{}, &common.LockedError{Until: *cur.LockedUntil}
		}

		attempts, until := s.lockout.RegisterFailure(cur.FailedLoginAttempts, now)
		return models.UserUpdate{FailedLoginAttempts: &attempts, LockedUntil: until}, nil
	})
	if err != nil {
		if errors.Is(err, common.ErrAccountLocked) {
			return err
		}
		return s.internal(ctx, "record failed login", err)
	}

	if s.lockout.IsLocked(updated.LockedUntil, now) {
		s.log.Warn(ctx, "account locked", "user_id", userID, "attempts", updated.FailedLoginAttempts)
		return &common.LockedError{Until: *updated.LockedUntil}
	}

	s.log.Info(ctx, "login rejected, invalid password", "user_id", userID, "attempts", updated.FailedLoginAttempts)
	return common.ErrInvalidCredentials
}

// VerifyToken checks the token and confirms the account behind it still
// exists with the email the token was issued for.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.PublicUser, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.log.Debug(ctx, "token rejected", "error", err)
		return nil, err
	}

	user, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "lookup user", err)
	}
	if user.Email != store.NormalizeEmail(claims.Email) {
		s.log.Debug(ctx, "token rejected, email mismatch", "user_id", user.ID)
		return nil, common.ErrInvalidToken
	}

	public := user.Public()
	return &public, nil
}

// VerifyMFASetup checks a code against a secret that is not stored yet.
func (s *AuthService) VerifyMFASetup(ctx context.Context, secret, code string) (bool, error) {
	if strings.TrimSpace(secret) == "" || strings.TrimSpace(code) == "" {
		return false, common.NewValidationError("MFA secret and code are required")
	}
	return s.mfa.VerifyAt(secret, code, s.now()), nil
}

func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
