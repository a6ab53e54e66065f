// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Account field constraints.
const (
	MinPasswordLength = 8
	MaxUsernameLength = 50
	MaxEmailLength    = 254
	MaxNameLength     = 100
)

// Account represents a registered identity.
type Account struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// Summary is the subset of Account fields returned to clients.
type Summary struct {
	ID        ulid.ULID
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// Summary returns the client-facing view of the account.
func (a *Account) Summary() Summary {
	return Summary{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
	}
}

// NewAccount creates an Account with a fresh ID and normalized fields.
// The password hash must already be computed.
func NewAccount(username, email, passwordHash, firstName, lastName string) (*Account, error) {
	username = NormalizeUsername(username)
	email = NormalizeEmail(email)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidInput).Errorf("password hash cannot be empty")
	}
	return &Account{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// NormalizeUsername trims surrounding whitespace. Case is preserved; lookups
// are case-insensitive.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUsername checks that a normalized username is usable.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code(CodeInvalidInput).With("field", "userName").Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return oops.Code(CodeInvalidInput).
			With("field", "userName").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	return nil
}

// ValidateEmail checks that a normalized email is a bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code(CodeInvalidInput).With("field", "email").Errorf("email is required")
	}
	if len(email) > MaxEmailLength {
		return oops.Code(CodeInvalidInput).
			With("field", "email").
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code(CodeInvalidInput).With("field", "email").Errorf("email is not a valid address")
	}
	return nil
}

// ValidatePassword applies the password policy.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return oops.Code(CodeWeakPassword).
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// UsernameExists reports whether an account uses username (case-insensitive).
	UsernameExists(ctx context.Context, username string) (bool, error)

	// EmailExists reports whether an account uses email (case-insensitive).
	EmailExists(ctx context.Context, email string) (bool, error)

	// GetByUsername retrieves an account by username (case-insensitive).
	// Returns ErrNotFound if no account matches.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// GetByID retrieves an account by ID.
	// Returns ErrNotFound if no account matches.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// Create stores a new account. A username or email collision returns an
	// error coded AUTH_USERNAME_TAKEN or AUTH_EMAIL_TAKEN.
	Create(ctx context.Context, account *Account) error
}
