package repository

import "context"

// TransactionManager runs a unit of work against the store atomically.
type TransactionManager interface {
	// Execute runs fn within a transaction. A returned error rolls back, nil commits.
	// Repositories obtained from the factory share the transaction.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory hands out repositories bound to one transaction.
type RepositoryFactory interface {
	NewUserRepository() UserRepository
}
