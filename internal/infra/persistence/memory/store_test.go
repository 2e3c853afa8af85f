package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/errors"
)

func newUser(username, email string) *entity.User {
	return &entity.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	store := NewStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	alice := newUser("alice", "a@x.com")
	require.NoError(t, repo.Create(ctx, alice))
	assert.False(t, alice.CreatedAt.IsZero())

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = repo.FindByEmail(ctx, "A@x.com")
	assert.True(t, errors.Is(err, repository.ErrUserNotFound), "email lookup is exact")

	_, err = repo.FindByID(ctx, uuid.Must(uuid.NewV7()))
	assert.True(t, errors.Is(err, repository.ErrUserNotFound))
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewUserRepository(NewStore())
	ctx := context.Background()

	alice := newUser("alice", "a@x.com")
	require.NoError(t, repo.Create(ctx, alice))

	found, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	found.Username = "mallory"

	again, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username)
}

func TestUserRepository_Uniqueness(t *testing.T) {
	repo := NewUserRepository(NewStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("alice", "a@x.com")))

	err := repo.Create(ctx, newUser("bob", "a@x.com"))
	assert.True(t, errors.Is(err, domainerrors.ErrEmailConflict))
	assert.False(t, errors.Is(err, domainerrors.ErrUsernameConflict))

	err = repo.Create(ctx, newUser("alice", "b@x.com"))
	assert.True(t, errors.Is(err, domainerrors.ErrUsernameConflict))
	assert.False(t, errors.Is(err, domainerrors.ErrEmailConflict))
}

func TestUserRepository_FindByUsername(t *testing.T) {
	store := NewStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("alice", "a@x.com")))

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", found.Email)

	_, err = repo.FindByUsername(ctx, "bob")
	assert.True(t, errors.Is(err, repository.ErrUserNotFound))

	err = NewTransactionManager(store).Execute(ctx, func(f repository.RepositoryFactory) error {
		users := f.NewUserRepository()
		require.NoError(t, users.Create(ctx, newUser("bob", "b@x.com")))

		staged, err := users.FindByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "b@x.com", staged.Email)

		_, err = users.FindByUsername(ctx, "alice")

		return err
	})
	require.NoError(t, err)
}

func TestTransactionManager_RollbackDiscardsWrites(t *testing.T) {
	store := NewStore()
	tm := NewTransactionManager(store)
	ctx := context.Background()

	sentinel := errors.New("abort")
	err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		users := f.NewUserRepository()
		require.NoError(t, users.Create(ctx, newUser("alice", "a@x.com")))

		found, err := users.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "alice", found.Username)

		return sentinel
	})
	assert.True(t, errors.Is(err, sentinel))
	assert.Equal(t, 0, store.Len())
}

func TestTransactionManager_CommitAppliesWrites(t *testing.T) {
	store := NewStore()
	tm := NewTransactionManager(store)
	ctx := context.Background()

	err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		users := f.NewUserRepository()
		if err := users.Create(ctx, newUser("alice", "a@x.com")); err != nil {
			return err
		}

		return users.Create(ctx, newUser("bob", "a@x.com"))
	})
	assert.True(t, errors.Is(err, domainerrors.ErrEmailConflict), "duplicate within one transaction")
	assert.Equal(t, 0, store.Len())

	err = tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		return f.NewUserRepository().Create(ctx, newUser("alice", "a@x.com"))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestTransactionManager_ConcurrentRegistrationsOneWins(t *testing.T) {
	store := NewStore()
	tm := NewTransactionManager(store)
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
				users := f.NewUserRepository()
				if _, err := users.FindByEmail(ctx, "a@x.com"); err == nil {
					return domainerrors.ErrDuplicateUser
				}

				return users.Create(ctx, newUser(uuid.NewString(), "a@x.com"))
			})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 1, store.Len())
}

func TestUserRepository_CancelledContext(t *testing.T) {
	repo := NewUserRepository(NewStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FindByEmail(ctx, "a@x.com")
	assert.True(t, errors.Is(err, context.Canceled))
}
