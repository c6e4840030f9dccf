package store

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

type PostgresStore struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

func NewPostgresStore(db *sql.DB, rm repomanager.RepositoryManager) *PostgresStore {
	return &PostgresStore{db: db, rm: rm}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.rm.Users(s.db).GetByEmail(ctx, NormalizeEmail(email))
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.rm.Users(s.db).GetByID(ctx, id)
}

// Create relies on the unique index on email; of two concurrent inserts
// exactly one commits.
func (s *PostgresStore) Create(ctx context.Context, email, displayName, passwordHash, mfaSecret string, opts ...CreateOption) (*models.User, error) {
	user, err := newUser(email, displayName, passwordHash, mfaSecret, opts)
	if err != nil {
		return nil, err
	}
	return s.rm.Users(s.db).Create(ctx, user)
}

func (s *PostgresStore) Update(ctx context.Context, id string, upd models.UserUpdate) error {
	return s.rm.Users(s.db).Update(ctx, id, upd)
}

// UpdateFunc holds a row lock (SELECT ... FOR UPDATE) between reading the
// record and writing the update, so concurrent instances serialize on it.
func (s *PostgresStore) UpdateFunc(ctx context.Context, id string, fn MutateFunc) (*models.User, error) {
	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.rm.Users(tx)

		current, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}

		upd, err := fn(*current)
		if err != nil {
			return nil, err
		}
		if upd.IsEmpty() {
			return current, nil
		}

		next, err := upd.Apply(*current)
		if err != nil {
			return nil, err
		}
		if err := repo.Update(ctx, id, upd); err != nil {
			return nil, err
		}
		return &next, nil
	})
}
