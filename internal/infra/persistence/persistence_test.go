package persistence

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"gatekeeper/config"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"
)

func newParams(t *testing.T, driver string) Params {
	cfg := &config.Config{}
	cfg.Store.Driver = driver

	return Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNew_Memory(t *testing.T) {
	res, err := New(newParams(t, config.StoreDriverMemory))
	require.NoError(t, err)

	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Username: "alice", Email: "a@x.com", PasswordHash: "h"}

	// Writes through the transaction manager are visible to the plain repository.
	err = res.TxManager.Execute(ctx, func(f repository.RepositoryFactory) error {
		return f.NewUserRepository().Create(ctx, user)
	})
	require.NoError(t, err)

	found, err := res.UserRepo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(newParams(t, "sqlite"))
	assert.ErrorContains(t, err, "sqlite")
}
