// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/pkg/errutil"
)

func TestNewAccount(t *testing.T) {
	account, err := auth.NewAccount("  Alice ", " Alice@Example.COM ", "$argon2id$x", " Alice ", " Liddell ")
	require.NoError(t, err)
	assert.NotEqual(t, ulid.ULID{}, account.ID)
	assert.Equal(t, "Alice", account.Username)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, "Alice", account.FirstName)
	assert.Equal(t, "Liddell", account.LastName)
	assert.WithinDuration(t, time.Now(), account.CreatedAt, time.Minute)

	summary := account.Summary()
	assert.Equal(t, account.ID, summary.ID)
	assert.Equal(t, account.Email, summary.Email)
}

func TestNewAccount_Invalid(t *testing.T) {
	tests := map[string]struct {
		username, email, hash string
	}{
		"empty username":     {"", "a@b.com", "h"},
		"long username":      {strings.Repeat("x", auth.MaxUsernameLength+1), "a@b.com", "h"},
		"empty email":        {"alice", "", "h"},
		"malformed email":    {"alice", "alice@", "h"},
		"empty hash":         {"alice", "a@b.com", ""},
		"overlong email":     {"alice", strings.Repeat("a", 250) + "@b.com", "h"},
		"email with display": {"alice", "Alice <a@b.com>", "h"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := auth.NewAccount(tt.username, tt.email, tt.hash, "", "")
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, auth.CodeInvalidInput)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	require.NoError(t, auth.ValidatePassword("12345678"))
	require.NoError(t, auth.ValidatePassword("pässwörd"))
	err := auth.ValidatePassword("1234567")
	errutil.AssertErrorCode(t, err, auth.CodeWeakPassword)
}

func TestGenerateOTPCode(t *testing.T) {
	seen := make(map[string]struct{})
	for range 500 {
		code, err := auth.GenerateOTPCode()
		require.NoError(t, err)
		require.True(t, auth.IsWellFormedOTPCode(code), "code %q", code)
		require.GreaterOrEqual(t, code, "100000")
		require.LessOrEqual(t, code, "999999")
		seen[code] = struct{}{}
	}
	// 500 draws from 900000 values collide rarely; a constant generator would not.
	assert.Greater(t, len(seen), 400)
}

func TestNewOTPChallenge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c, err := auth.NewOTPChallenge("A@B.com", "123456", now, auth.DefaultOTPExpiry)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", c.Email)
	assert.Equal(t, now.Add(5*time.Minute), c.ExpiresAt)
	assert.False(t, c.Consumed)
	assert.Nil(t, c.ConsumedAt)

	assert.False(t, c.IsExpiredAt(now))
	assert.False(t, c.IsExpiredAt(c.ExpiresAt))
	assert.True(t, c.IsExpiredAt(c.ExpiresAt.Add(time.Nanosecond)))

	_, err = auth.NewOTPChallenge("bad", "123456", now, time.Minute)
	errutil.AssertErrorCode(t, err, auth.CodeOTPInvalidEmail)
	_, err = auth.NewOTPChallenge("a@b.com", "12", now, time.Minute)
	require.Error(t, err)
	_, err = auth.NewOTPChallenge("a@b.com", "123456", now, 0)
	require.Error(t, err)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want auth.ErrorKind
	}{
		{"nil", nil, auth.KindInternal},
		{"plain error", errors.New("boom"), auth.KindInternal},
		{"uncoded oops", oops.Errorf("boom"), auth.KindInternal},
		{"username taken", auth.ErrUsernameTaken, auth.KindConflict},
		{"weak password", oops.Code(auth.CodeWeakPassword).Errorf("short"), auth.KindInvalidInput},
		{"invalid credentials", oops.Code(auth.CodeInvalidCredentials).Errorf("no"), auth.KindUnauthorized},
		{"otp not found", oops.Code(auth.CodeOTPNotFound).Errorf("gone"), auth.KindNotFoundOrExpired},
		{"unknown code", oops.Code("SOMETHING_ELSE").Errorf("x"), auth.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.KindOf(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Email already exists", auth.PublicMessage(auth.ErrEmailTaken))
	assert.Equal(t, "Internal server error", auth.PublicMessage(errors.New("pq: relation missing")))
	assert.Equal(t, "Internal server error", auth.PublicMessage(nil))
	assert.Equal(t, "conflict", auth.KindConflict.String())
	assert.Equal(t, "internal", auth.KindInternal.String())
}
