package postgres

import (
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"
)

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation  = "23505"
	pgNotNullViolation = "23502"
)

// Unique index names from the users migration.
const (
	usersEmailIndex    = "idx_users_email"
	usersUsernameIndex = "idx_users_username"
)

func isUniqueConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	return hasPgCode(err, pgUniqueViolation)
}

// conflictFor picks the conflict error for a unique violation by the index
// that rejected the row.
func conflictFor(err error) error {
	pgErr, ok := errors.AsType[*pgconn.PgError](err)
	if !ok {
		return domainerrors.ErrConflict
	}

	switch pgErr.ConstraintName {
	case usersEmailIndex:
		return domainerrors.ErrEmailConflict
	case usersUsernameIndex:
		return domainerrors.ErrUsernameConflict
	default:
		return domainerrors.ErrConflict
	}
}

func isNotNullConstraintViolation(err error) bool {
	return hasPgCode(err, pgNotNullViolation)
}

func hasPgCode(err error, code string) bool {
	pgErr, ok := errors.AsType[*pgconn.PgError](err)

	return ok && pgErr.Code == code
}
