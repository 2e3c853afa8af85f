// Package persistence selects the user store backend from store.driver.
package persistence

import (
	"log/slog"

	"go.uber.org/fx"

	"gatekeeper/config"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/persistence/memory"
	"gatekeeper/internal/infra/persistence/postgres"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// Result exposes the selected backend to the container.
type Result struct {
	fx.Out

	UserRepo  repository.UserRepository
	TxManager repository.TransactionManager
}

// New builds the repositories for the configured driver.
func New(params Params) (Result, error) {
	switch params.Config.Store.Driver {
	case config.StoreDriverMemory:
		params.Logger.Warn("Using the in-memory user store, data is lost on restart")
		store := memory.NewStore()

		return Result{
			UserRepo:  memory.NewUserRepository(store),
			TxManager: memory.NewTransactionManager(store),
		}, nil

	case config.StoreDriverPostgres:
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return Result{}, err
		}

		return Result{
			UserRepo:  postgres.NewUserRepository(db),
			TxManager: postgres.NewTransactionManager(db),
		}, nil

	default:
		return Result{}, errors.Errorf("store.driver %q is not supported", params.Config.Store.Driver)
	}
}
