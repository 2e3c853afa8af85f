// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository is the narrow store contract the authentication flow needs.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by exact email match.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByUsername retrieves a single user by exact username match.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// Create persists a new user. A duplicate email is reported as
	// domainerrors.ErrEmailConflict and a duplicate username as
	// domainerrors.ErrUsernameConflict.
	Create(ctx context.Context, user *entity.User) error
}
