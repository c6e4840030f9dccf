package store

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryStore keeps users in process memory. A single mutex serializes all
// writes, which gives the same guarantees as PostgresStore for one process.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// WithClock sets the time source used for CreatedAt.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (s *MemoryStore) Create(ctx context.Context, email, displayName, passwordHash, mfaSecret string, opts ...CreateOption) (*models.User, error) {
	u, err := newUser(email, displayName, passwordHash, mfaSecret, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return nil, common.ErrAlreadyRegistered
	}

	u.ID = uuid.NewString()
	u.CreatedAt = s.now().UTC()
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u.ID

	return clone(u), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, upd models.UserUpdate) error {
	_, err := s.UpdateFunc(ctx, id, func(models.User) (models.UserUpdate, error) {
		return upd, nil
	})
	return err
}

func (s *MemoryStore) UpdateFunc(ctx context.Context, id string, fn MutateFunc) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	upd, err := fn(*clone(current))
	if err != nil {
		return nil, err
	}
	next, err := upd.Apply(*clone(current))
	if err != nil {
		return nil, err
	}

	s.byID[id] = &next
	return clone(&next), nil
}

// clone deep-copies the pointer fields so callers cannot alias stored state.
func clone(u *models.User) *models.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	if u.LockedUntil != nil {
		t := *u.LockedUntil
		c.LockedUntil = &t
	}
	return &c
}
