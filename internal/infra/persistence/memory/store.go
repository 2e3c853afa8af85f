// Package memory is an in-process implementation of the user store, used by
// tests and by deployments configured with store.driver: memory.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/errors"
)

// Store holds users in maps guarded by a single mutex. Email and username are
// unique, like the indexes in the PostgreSQL schema.
type Store struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]entity.User
	byEmail    map[string]uuid.UUID
	byUsername map[string]uuid.UUID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byID:       make(map[uuid.UUID]entity.User),
		byEmail:    make(map[string]uuid.UUID),
		byUsername: make(map[string]uuid.UUID),
	}
}

// NewUserRepository returns a repository reading and writing the store directly.
func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{store: s}
}

// NewTransactionManager returns a transaction manager over the store.
func NewTransactionManager(s *Store) repository.TransactionManager {
	return &transactionManager{store: s}
}

// Len reports the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byID)
}

// The *Locked helpers require s.mu to be held by the caller.
func (s *Store) findByEmailLocked(email string) (*entity.User, bool) {
	id, ok := s.byEmail[email]
	if !ok {
		return nil, false
	}
	u := s.byID[id]

	return &u, true
}

func (s *Store) findByUsernameLocked(username string) (*entity.User, bool) {
	id, ok := s.byUsername[username]
	if !ok {
		return nil, false
	}
	u := s.byID[id]

	return &u, true
}

func (s *Store) findByIDLocked(id uuid.UUID) (*entity.User, bool) {
	u, ok := s.byID[id]
	if !ok {
		return nil, false
	}

	return &u, true
}

func (s *Store) conflictLocked(u *entity.User) error {
	if _, ok := s.byID[u.ID]; ok {
		return errors.Wrapf(domainerrors.ErrConflict, "id %s already exists", u.ID)
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return errors.Wrap(domainerrors.ErrEmailConflict, "email already exists")
	}
	if _, ok := s.byUsername[u.Username]; ok {
		return errors.Wrap(domainerrors.ErrUsernameConflict, "username already exists")
	}

	return nil
}

func (s *Store) insertLocked(u entity.User) {
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u.ID
	s.byUsername[u.Username] = u.ID
}

type userRepository struct {
	store *Store
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.findByIDLocked(id)
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.findByEmailLocked(email)
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return u, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.findByUsernameLocked(username)
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.conflictLocked(user); err != nil {
		return err
	}
	stampCreated(user)
	r.store.insertLocked(*user)

	return nil
}
