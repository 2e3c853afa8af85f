package impl

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/infra/auth"
	"gatekeeper/internal/infra/persistence/memory"
	"gatekeeper/internal/usecase"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Token = config.TokenConfig{
		Secret:     "usecase_test_secret",
		Algorithm:  "HS256",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
	cfg.Hasher = config.HasherConfig{
		Algorithm: config.HashAlgorithmArgon2id,
		Argon2: config.Argon2Config{
			Memory:      1024,
			Iterations:  1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
		BcryptCost: bcrypt.MinCost,
	}

	return cfg
}

type workflowFixture struct {
	usecase.AuthUsecase

	store  *memory.Store
	tokens service.TokenService
	clock  *testClock
}

// newWorkflow wires the real hasher and token service over the memory store.
func newWorkflow(t *testing.T) *workflowFixture {
	t.Helper()

	cfg := newTestConfig()
	clock := &testClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}

	hasher, err := auth.NewPasswordHasher(cfg)
	require.NoError(t, err)
	tokens, err := auth.NewJWTServiceWithClock(cfg, clock.Now)
	require.NoError(t, err)

	store := memory.NewStore()

	return &workflowFixture{
		AuthUsecase: NewAuthService(AuthServiceParams{
			TxManager:    memory.NewTransactionManager(store),
			UserRepo:     memory.NewUserRepository(store),
			Hasher:       hasher,
			TokenService: tokens,
			Logger:       newDiscardLogger(),
		}),
		store:  store,
		tokens: tokens,
		clock:  clock,
	}
}
