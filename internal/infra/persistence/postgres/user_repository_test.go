package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/errors"
)

var userColumns = []string{"id", "username", "email", "password_hash", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "alice", "a@x.com", "$argon2id$hash", now, now))

	user, err := repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "$argon2id$hash", user.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.FindByEmail(context.Background(), "nobody@x.com")
	assert.True(t, errors.Is(err, repository.ErrUserNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "alice", "a@x.com", "hash", now, now))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	_, err = repo.FindByUsername(context.Background(), "bob")
	assert.True(t, errors.Is(err, repository.ErrUserNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "alice", "a@x.com", "hash", now, now))

	user, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnError(errors.New("db down"))

	_, err := repo.FindByID(context.Background(), uuid.Must(uuid.NewV7()))
	require.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrUserNotFound))
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &entity.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "hash",
	}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.False(t, user.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
		notWant    error
	}{
		{name: "email", constraint: "idx_users_email", want: domainerrors.ErrEmailConflict, notWant: domainerrors.ErrUsernameConflict},
		{name: "username", constraint: "idx_users_username", want: domainerrors.ErrUsernameConflict, notWant: domainerrors.ErrEmailConflict},
		{name: "other", constraint: "users_pkey", want: domainerrors.ErrConflict, notWant: domainerrors.ErrEmailConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewUserRepository(db)

			mock.ExpectExec(`INSERT INTO "users"`).
				WillReturnError(&pgconn.PgError{
					Code:           "23505",
					Message:        "duplicate key value violates unique constraint",
					ConstraintName: tt.constraint,
				})

			err := repo.Create(context.Background(), &entity.User{ID: uuid.Must(uuid.NewV7()), Username: "alice", Email: "a@x.com"})
			assert.True(t, errors.Is(err, tt.want))
			assert.False(t, errors.Is(err, tt.notWant))
			assert.True(t, domainerrors.IsConflict(err))

			pgErr, ok := errors.AsType[*pgconn.PgError](err)
			require.True(t, ok, "driver error stays in the chain")
			assert.Equal(t, tt.constraint, pgErr.ConstraintName)
		})
	}
}

func TestUserRepository_Create_OtherError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &entity.User{ID: uuid.Must(uuid.NewV7()), Username: "alice", Email: "a@x.com"})
	require.Error(t, err)
	assert.False(t, domainerrors.IsConflict(err))
}

func TestTransactionManager_CommitAndRollback(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		users := f.NewUserRepository()
		if _, err := users.FindByEmail(ctx, "a@x.com"); !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}

		return users.Create(ctx, &entity.User{ID: uuid.Must(uuid.NewV7()), Username: "alice", Email: "a@x.com"})
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("abort")
	err = tm.Execute(ctx, func(repository.RepositoryFactory) error { return sentinel })
	assert.True(t, errors.Is(err, sentinel))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_BeginAndCommitFailures(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db)
	ctx := context.Background()

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	called := false
	err := tm.Execute(ctx, func(repository.RepositoryFactory) error {
		called = true

		return nil
	})
	assert.True(t, errors.Is(err, domainerrors.ErrTransactionFailed))
	assert.Contains(t, err.Error(), "no connection")
	assert.False(t, called)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err = tm.Execute(ctx, func(repository.RepositoryFactory) error { return nil })
	assert.True(t, errors.Is(err, domainerrors.ErrTransactionFailed))
	assert.Contains(t, err.Error(), "serialization failure")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintViolation(t *testing.T) {
	assert.True(t, isUniqueConstraintViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueConstraintViolation(errors.Wrap(&pgconn.PgError{Code: "23505"}, "insert")))
	assert.False(t, isUniqueConstraintViolation(&pgconn.PgError{Code: "23502"}))
	assert.True(t, isNotNullConstraintViolation(&pgconn.PgError{Code: "23502"}))
	assert.False(t, isUniqueConstraintViolation(errors.New("other")))
}
