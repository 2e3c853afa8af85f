package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/errors"
)

// transactionManager serialises units of work on the store lock. Writes are
// staged and applied only when fn returns nil.
type transactionManager struct {
	store *Store
}

func (tm *transactionManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	tm.store.mu.Lock()
	defer tm.store.mu.Unlock()

	tx := &txRepository{store: tm.store}
	if err := fn(tx); err != nil {
		return err
	}

	for _, u := range tx.pending {
		tm.store.insertLocked(u)
	}

	return nil
}

// txRepository runs with the store lock already held by Execute.
type txRepository struct {
	store   *Store
	pending []entity.User
}

func (t *txRepository) NewUserRepository() repository.UserRepository {
	return t
}

func (t *txRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	for i := range t.pending {
		if t.pending[i].ID == id {
			u := t.pending[i]

			return &u, nil
		}
	}
	if u, ok := t.store.findByIDLocked(id); ok {
		return u, nil
	}

	return nil, repository.ErrUserNotFound
}

func (t *txRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	for i := range t.pending {
		if t.pending[i].Email == email {
			u := t.pending[i]

			return &u, nil
		}
	}
	if u, ok := t.store.findByEmailLocked(email); ok {
		return u, nil
	}

	return nil, repository.ErrUserNotFound
}

func (t *txRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	for i := range t.pending {
		if t.pending[i].Username == username {
			u := t.pending[i]

			return &u, nil
		}
	}
	if u, ok := t.store.findByUsernameLocked(username); ok {
		return u, nil
	}

	return nil, repository.ErrUserNotFound
}

func (t *txRepository) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if err := t.store.conflictLocked(user); err != nil {
		return err
	}
	staged := NewStore()
	for _, u := range t.pending {
		staged.insertLocked(u)
	}
	if err := staged.conflictLocked(user); err != nil {
		return err
	}

	stampCreated(user)
	t.pending = append(t.pending, *user)

	return nil
}

func stampCreated(u *entity.User) {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}
