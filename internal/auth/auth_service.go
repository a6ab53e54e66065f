// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package auth

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Client-facing messages.
const (
	msgUsernameTaken      = "User name already exists"
	msgEmailTaken         = "Email already exists"
	msgInvalidCredentials = "Invalid username or password"

	MsgUsernameAvailable   = "Username is available"
	MsgUsernameUnavailable = "Username is not available"
	MsgEmailAvailable      = "Email is available"
	MsgEmailUnavailable    = "Email is already registered"
)

// ErrUsernameTaken and ErrEmailTaken are returned by Register and by
// repositories detecting a uniqueness collision.
var (
	ErrUsernameTaken = oops.Code(CodeUsernameTaken).Errorf(msgUsernameTaken)
	ErrEmailTaken    = oops.Code(CodeEmailTaken).Errorf(msgEmailTaken)
)

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Account Summary
	Token   string
}

// Availability is the result of a username or email probe.
type Availability struct {
	Available bool
	Message   string
}

// Service provides registration and login.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	tokens   *TokenIssuer
	opts     options
}

// NewAuthService creates a new Service.
func NewAuthService(accounts AccountRepository, hasher PasswordHasher, tokens *TokenIssuer, opts ...Option) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token issuer is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{accounts: accounts, hasher: hasher, tokens: tokens, opts: o}, nil
}

// dummyPasswordHash is verified when the username is unknown so that both
// failure branches cost the same.
//
//nolint:gosec // G101: not a credential, never matches any password.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates an account. Checks run in a fixed order: required
// fields, username uniqueness, email uniqueness, password policy.
// No token is issued.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	username := NormalizeUsername(req.Username)
	email := NormalizeEmail(req.Email)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	taken, err := s.usernameExists(ctx, username)
	if err != nil {
		return nil, oops.Code(CodeRegisterFailed).With("operation", "check username").Wrap(err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = s.emailExists(ctx, email)
	if err != nil {
		return nil, oops.Code(CodeRegisterFailed).With("operation", "check email").Wrap(err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, oops.Code(CodeRegisterFailed).With("operation", "hash password").Wrap(err)
	}

	account, err := NewAccount(username, email, hash, req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}

	createCtx, cancel := context.WithTimeout(ctx, s.opts.storeTimeout)
	defer cancel()
	if err := s.accounts.Create(createCtx, account); err != nil {
		// A concurrent registration can win between the checks and the insert.
		if KindOf(err) == KindConflict {
			return nil, err
		}
		return nil, oops.Code(CodeRegisterFailed).
			With("operation", "create account").
			With("username", username).
			Wrap(err)
	}

	s.opts.logger.InfoContext(ctx, "account registered",
		"account_id", account.ID.String(),
		"username", account.Username)
	return account, nil
}

// Login verifies credentials and mints a session token. Unknown usernames
// and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = NormalizeUsername(username)

	var account *Account
	var lookupErr error
	if username != "" {
		lookupCtx, cancel := context.WithTimeout(ctx, s.opts.storeTimeout)
		account, lookupErr = s.accounts.GetByUsername(lookupCtx, username)
		cancel()
	} else {
		lookupErr = ErrNotFound
	}

	targetHash := dummyPasswordHash
	switch {
	case lookupErr == nil:
		targetHash = account.PasswordHash
	case errors.Is(lookupErr, ErrNotFound):
		account = nil
	default:
		return nil, oops.Code(CodeLoginFailed).
			With("operation", "get account by username").
			Wrap(lookupErr)
	}

	valid := s.hasher.Verify(password, targetHash)
	if account == nil || !valid {
		s.opts.logger.InfoContext(ctx, "login rejected",
			"username", username,
			"known_user", account != nil)
		return nil, oops.Code(CodeInvalidCredentials).Errorf(msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		return nil, oops.Code(CodeLoginFailed).
			With("operation", "issue token").
			With("account_id", account.ID.String()).
			Wrap(err)
	}

	return &LoginResult{Account: account.Summary(), Token: token}, nil
}

// CheckUsername reports whether username can be registered.
func (s *Service) CheckUsername(ctx context.Context, username string) (Availability, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return Availability{Available: false, Message: MsgUsernameUnavailable}, nil
	}
	taken, err := s.usernameExists(ctx, username)
	if err != nil {
		return Availability{}, oops.Code(CodeCheckFailed).With("operation", "check username").Wrap(err)
	}
	if taken {
		return Availability{Available: false, Message: MsgUsernameUnavailable}, nil
	}
	return Availability{Available: true, Message: MsgUsernameAvailable}, nil
}

// CheckEmail reports whether email can be registered.
func (s *Service) CheckEmail(ctx context.Context, email string) (Availability, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return Availability{Available: false, Message: MsgEmailUnavailable}, nil
	}
	taken, err := s.emailExists(ctx, email)
	if err != nil {
		return Availability{}, oops.Code(CodeCheckFailed).With("operation", "check email").Wrap(err)
	}
	if taken {
		return Availability{Available: false, Message: MsgEmailUnavailable}, nil
	}
	return Availability{Available: true, Message: MsgEmailAvailable}, nil
}

// Account returns the summary of the account with id.
func (s *Service) Account(ctx context.Context, id ulid.ULID) (Summary, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.opts.storeTimeout)
	defer cancel()
	account, err := s.accounts.GetByID(lookupCtx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Summary{}, oops.Code(CodeAccountNotFound).With("account_id", id.String()).Errorf("account not found")
		}
		return Summary{}, oops.Code(CodeAccountLookup).With("account_id", id.String()).Wrap(err)
	}
	return account.Summary(), nil
}

func (s *Service) usernameExists(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.storeTimeout)
	defer cancel()
	return s.accounts.UsernameExists(ctx, username) //nolint:wrapcheck // callers wrap with operation context
}

func (s *Service) emailExists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.storeTimeout)
	defer cancel()
	return s.accounts.EmailExists(ctx, email) //nolint:wrapcheck // callers wrap with operation context
}
