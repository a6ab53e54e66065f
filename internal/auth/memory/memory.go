// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

// Package memory provides in-process auth repositories for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/fintrack/fintrack/internal/auth"
)

// AccountRepository is a mutex-guarded auth.AccountRepository.
type AccountRepository struct {
	mu         sync.RWMutex
	byID       map[ulid.ULID]auth.Account
	byUsername map[string]ulid.ULID
	byEmail    map[string]ulid.ULID
}

var _ auth.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates an empty AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:       make(map[ulid.ULID]auth.Account),
		byUsername: make(map[string]ulid.ULID),
		byEmail:    make(map[string]ulid.ULID),
	}
}

func fold(s string) string { return strings.ToLower(s) }

// UsernameExists reports whether username is taken, ignoring case.
func (r *AccountRepository) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUsername[fold(username)]
	return ok, nil
}

// EmailExists reports whether email is taken, ignoring case.
func (r *AccountRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[fold(email)]
	return ok, nil
}

// GetByUsername returns a copy of the account for username.
func (r *AccountRepository) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[fold(username)]
	if !ok {
		return nil, oops.Code(auth.CodeAccountNotFound).With("username", username).Wrap(auth.ErrNotFound)
	}
	account := r.byID[id]
	return &account, nil
}

// GetByID returns a copy of the account for id.
func (r *AccountRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.byID[id]
	if !ok {
		return nil, oops.Code(auth.CodeAccountNotFound).With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return &account, nil
}

// Create stores a copy of account, enforcing the same uniqueness rules as
// the PostgreSQL indexes.
func (r *AccountRepository) Create(_ context.Context, account *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[account.ID]; ok {
		return oops.Code("ACCOUNT_CREATE_FAILED").With("id", account.ID.String()).Errorf("duplicate account id")
	}
	if _, ok := r.byUsername[fold(account.Username)]; ok {
		return oops.With("username", account.Username).Wrap(auth.ErrUsernameTaken)
	}
	if _, ok := r.byEmail[fold(account.Email)]; ok {
		return oops.With("email", account.Email).Wrap(auth.ErrEmailTaken)
	}
	r.byID[account.ID] = *account
	r.byUsername[fold(account.Username)] = account.ID
	r.byEmail[fold(account.Email)] = account.ID
	return nil
}

// OTPRepository is a mutex-guarded auth.OTPRepository. History is kept in
// insertion order and never pruned.
type OTPRepository struct {
	mu         sync.Mutex
	challenges []auth.OTPChallenge
}

var _ auth.OTPRepository = (*OTPRepository)(nil)

// NewOTPRepository creates an empty OTPRepository.
func NewOTPRepository() *OTPRepository {
	return &OTPRepository{}
}

// Create appends a copy of challenge.
func (r *OTPRepository) Create(_ context.Context, challenge *auth.OTPChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges = append(r.challenges, *challenge)
	return nil
}

// FindLatestUnconsumed returns the newest unconsumed challenge matching
// email and code, ordered by creation time then ID.
func (r *OTPRepository) FindLatestUnconsumed(_ context.Context, email, code string) (*auth.OTPChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *auth.OTPChallenge
	for i := range r.challenges {
		c := &r.challenges[i]
		if c.Consumed || c.Email != email || c.Code != code {
			continue
		}
		if latest == nil || newer(c, latest) {
			latest = c
		}
	}
	if latest == nil {
		return nil, oops.Code(auth.CodeOTPNotFound).With("email", email).Wrap(auth.ErrNotFound)
	}
	found := *latest
	return &found, nil
}

func newer(a, b *auth.OTPChallenge) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.Compare(b.ID) > 0
}

// MarkConsumed consumes id if it is still unconsumed.
func (r *OTPRepository) MarkConsumed(_ context.Context, id ulid.ULID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.challenges {
		c := &r.challenges[i]
		if c.ID != id {
			continue
		}
		if c.Consumed {
			return false, nil
		}
		c.Consumed = true
		consumedAt := at
		c.ConsumedAt = &consumedAt
		return true, nil
	}
	return false, nil
}

// Len returns the number of stored challenges.
func (r *OTPRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.challenges)
}
