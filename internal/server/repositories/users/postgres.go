package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, email, display_name, password_hash, mfa_secret, mfa_enabled,
		created_at, last_login_at, failed_login_attempts, locked_until`

type PostgresRepository struct {
	db  dbx.DBTX
	box *cryptox.SecretBox
}

// NewPostgresRepository binds the repository to db. A nil box stores MFA
// secrets as plain text.
func NewPostgresRepository(db dbx.DBTX, box *cryptox.SecretBox) *PostgresRepository {
	return &PostgresRepository{db: db, box: box}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	secret, err := r.sealSecret(user.MFASecret)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO users (id, email, display_name, password_hash, mfa_secret, mfa_enabled)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.DisplayName, user.PasswordHash, secret, user.MFAEnabled).Scan(&user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 FOR UPDATE
		 `
	return r.getOne(ctx, query, id)
}

// Update writes only the columns named by upd.
func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.UserUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}
	if upd.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.DisplayName != nil {
		set("display_name", *upd.DisplayName)
	}
	if upd.PasswordHash != nil {
		set("password_hash", *upd.PasswordHash)
	}
	if upd.MFASecret != nil {
		secret, err := r.sealSecret(*upd.MFASecret)
		if err != nil {
			return err
		}
		set("mfa_secret", secret)
	}
	if upd.ClearMFASecret {
		set("mfa_secret", nil)
	}
	if upd.MFAEnabled != nil {
		set("mfa_enabled", *upd.MFAEnabled)
	}
	if upd.LastLoginAt != nil {
		set("last_login_at", *upd.LastLoginAt)
	}
	if upd.FailedLoginAttempts != nil {
		set("failed_login_attempts", *upd.FailedLoginAttempts)
	}
	if upd.LockedUntil != nil {
		set("locked_until", *upd.LockedUntil)
	}
	if upd.ClearLockedUntil {
		set("locked_until", nil)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user        models.User
		secret      sql.NullString
		lastLoginAt sql.NullTime
		lockedUntil sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &secret, &user.MFAEnabled,
		&user.CreatedAt, &lastLoginAt, &user.FailedLoginAttempts, &lockedUntil)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if secret.Valid {
		user.MFASecret, err = r.box.Open(secret.String)
		if err != nil {
			return nil, fmt.Errorf("open mfa secret: %w", err)
		}
	}
	user.LastLoginAt = timePtr(lastLoginAt)
	user.LockedUntil = timePtr(lockedUntil)

	return &user, nil
}

// sealSecret maps an empty secret to NULL.
func (r *PostgresRepository) sealSecret(secret string) (any, error) {
	if secret == "" {
		return nil, nil
	}
	sealed, err := r.box.Seal(secret)
	if err != nil {
		return nil, fmt.Errorf("seal mfa secret: %w", err)
	}
	return sealed, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
