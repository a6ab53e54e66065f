// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/auth/postgres"
	"github.com/fintrack/fintrack/pkg/errutil"
)

var accountCols = []string{"id", "username", "email", "password_hash", "first_name", "last_name", "created_at"}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestAccountRepository_Exists(t *testing.T) {
	ctx := context.Background()

	t.Run("username taken", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT EXISTS .*LOWER\(username\) = LOWER\(\$1\)`).
			WithArgs("Alice").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := postgres.NewAccountRepository(mock).UsernameExists(ctx, "Alice")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("email free", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT EXISTS .*LOWER\(email\) = LOWER\(\$1\)`).
			WithArgs("a@b.com").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := postgres.NewAccountRepository(mock).EmailExists(ctx, "a@b.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("query failure", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("Alice").
			WillReturnError(errors.New("connection refused"))

		_, err := postgres.NewAccountRepository(mock).UsernameExists(ctx, "Alice")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_QUERY_FAILED")
		errutil.AssertErrorContext(t, err, "operation", "check username")
	})
}

func TestAccountRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM accounts\s+WHERE LOWER\(username\) = LOWER\(\$1\)`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(accountCols).
				AddRow(id.String(), "Alice", "alice@example.com", "$argon2id$x", "Alice", "Liddell", created))

		account, err := postgres.NewAccountRepository(mock).GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, &auth.Account{
			ID:           id,
			Username:     "Alice",
			Email:        "alice@example.com",
			PasswordHash: "$argon2id$x",
			FirstName:    "Alice",
			LastName:     "Liddell",
			CreatedAt:    created,
		}, account)
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM accounts`).
			WithArgs("ghost").
			WillReturnRows(pgxmock.NewRows(accountCols))

		_, err := postgres.NewAccountRepository(mock).GetByUsername(ctx, "ghost")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("corrupt id", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM accounts`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(accountCols).
				AddRow("not-a-ulid", "Alice", "alice@example.com", "h", "", "", created))

		_, err := postgres.NewAccountRepository(mock).GetByUsername(ctx, "alice")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestAccountRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()

	mock := newMockPool(t)
	mock.ExpectQuery(`FROM accounts\s+WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(pgxmock.NewRows(accountCols))
	mock.ExpectQuery(`FROM accounts\s+WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnError(errors.New("timeout"))

	repo := postgres.NewAccountRepository(mock)

	_, err := repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, auth.ErrNotFound)

	_, err = repo.GetByID(ctx, id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrNotFound)
	errutil.AssertErrorContext(t, err, "operation", "get account by id")
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()

	newAccount := func(t *testing.T) *auth.Account {
		t.Helper()
		account, err := auth.NewAccount("Alice", "alice@example.com", "$argon2id$x", "Alice", "Liddell")
		require.NoError(t, err)
		return account
	}

	t.Run("inserts", func(t *testing.T) {
		mock := newMockPool(t)
		account := newAccount(t)
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(account.ID.String(), "Alice", "alice@example.com", "$argon2id$x", "Alice", "Liddell", account.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, postgres.NewAccountRepository(mock).Create(ctx, account))
	})

	tests := []struct {
		name       string
		constraint string
		want       error
		kind       auth.ErrorKind
	}{
		{"username collision", "accounts_username_key", auth.ErrUsernameTaken, auth.KindConflict},
		{"email collision", "accounts_email_key", auth.ErrEmailTaken, auth.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			mock.ExpectExec(`INSERT INTO accounts`).
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
					pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
				WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: tt.constraint})

			err := postgres.NewAccountRepository(mock).Create(ctx, newAccount(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, auth.KindOf(err))
			assert.Equal(t, tt.want.Error(), err.Error())
		})
	}

	t.Run("primary key collision is internal", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_pkey"})

		err := postgres.NewAccountRepository(mock).Create(ctx, newAccount(t))
		errutil.AssertErrorCode(t, err, "ACCOUNT_CREATE_FAILED")
		assert.Equal(t, auth.KindInternal, auth.KindOf(err))
	})
}
