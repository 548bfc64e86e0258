package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/repositories"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewDBFromConn(sqlDB, zap.NewNop()), mock
}

var accountRowColumns = []string{"id", "username", "email", "password_hash", "role", "created_at", "updated_at"}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts the account", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, zap.NewNop())
		account := models.NewAccount("alice", "alice@example.com", "$2a$10$hash", models.AccountRoleUser)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(sqlmock.AnyArg(), "alice", "alice@example.com", "$2a$10$hash", "ROLE_USER", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, account))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrDuplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		err := repo.Create(ctx, models.NewAccount("alice", "", "x", models.AccountRoleUser))
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(errors.New("connection reset"))

		err := repo.Create(ctx, models.NewAccount("alice", "", "x", models.AccountRoleUser))
		require.Error(t, err)
		assert.NotErrorIs(t, err, repositories.ErrDuplicate)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestAccountRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, zap.NewNop())
		id := uuid.New()
		now := time.Now().UTC()

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(accountRowColumns).
				AddRow(id.String(), "alice", "alice@example.com", "$2a$10$hash", "ROLE_ADMIN", now, now))

		account, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, id, account.ID)
		assert.Equal(t, "alice", account.Username)
		assert.Equal(t, "$2a$10$hash", account.PasswordHash)
		assert.Equal(t, models.AccountRoleAdmin, account.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		account, err := repo.GetByUsername(ctx, "ghost")
		assert.Nil(t, account)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestAccountRepository_ExistsByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAccountRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db, zap.NewNop())
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY username")).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow(uuid.NewString(), "alice", "", "h1", "ROLE_USER", now, now).
			AddRow(uuid.NewString(), "root", "", "h2", "ROLE_ADMIN", now, now))

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Username)
	assert.True(t, accounts[1].IsAdmin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db, zap.NewNop())
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow(id.String(), "alice", "alice@example.com", "$2a$10$hash", "ROLE_USER", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WillReturnError(sql.ErrNoRows)

	account, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)

	_, err = repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Update(t *testing.T) {
	ctx := context.Background()
	account := models.NewAccount("alice", "alice@example.com", "hash", models.AccountRoleUser)

	t.Run("updated", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
			WithArgs(account.ID.String(), "alice", "alice@example.com", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(ctx, account))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Update(ctx, account), repositories.ErrNotFound)
	})

	t.Run("username taken", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		assert.ErrorIs(t, repo.Update(ctx, account), repositories.ErrDuplicate)
	})
}

func TestAccountRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db, zap.NewNop())
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New()), repositories.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
