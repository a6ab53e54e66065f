// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package auth

import (
	"crypto/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token configuration.
const (
	// DefaultTokenExpiry is the lifetime of a session token.
	DefaultTokenExpiry = 24 * time.Hour

	// DefaultTokenIssuer is the iss claim written and required by default.
	DefaultTokenIssuer = "fintrack"

	// MinSigningKeyLength is the minimum HS256 key size in bytes.
	MinSigningKeyLength = 32

	// maxIssuedAtSkew tolerates clock drift between replicas.
	maxIssuedAtSkew = time.Minute
)

// Identity is the trusted result of validating a session token.
type Identity struct {
	AccountID ulid.ULID
	Username  string
}

// Claims is the session token payload. The subject carries the account ID.
type Claims struct {
	Username string `json:"userName"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates stateless HS256 session tokens. The key is
// fixed for the lifetime of the issuer; replacing it invalidates every
// outstanding token.
type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithTokenIssuer sets the iss claim.
func WithTokenIssuer(issuer string) TokenOption {
	return func(t *TokenIssuer) {
		if issuer != "" {
			t.issuer = issuer
		}
	}
}

// WithTokenExpiry sets the token lifetime.
func WithTokenExpiry(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithTokenClock overrides the time source.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTokenIssuer creates a TokenIssuer signing with key.
func NewTokenIssuer(key []byte, opts ...TokenOption) (*TokenIssuer, error) {
	if len(key) < MinSigningKeyLength {
		return nil, oops.Code(CodeTokenKeyInvalid).
			With("min_length", MinSigningKeyLength).
			Errorf("signing key must be at least %d bytes", MinSigningKeyLength)
	}
	t := &TokenIssuer{
		key:    append([]byte(nil), key...),
		issuer: DefaultTokenIssuer,
		ttl:    DefaultTokenExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// GenerateSigningKey returns a random key suitable for NewTokenIssuer.
func GenerateSigningKey() ([]byte, error) {
	key := make([]byte, MinSigningKeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, oops.Code(CodeTokenKeyInvalid).Wrap(err)
	}
	return key, nil
}

// TTL returns the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue mints a token for the account.
func (t *TokenIssuer) Issue(accountID ulid.ULID, username string) (string, error) {
	if accountID == (ulid.ULID{}) || username == "" {
		return "", oops.Code(CodeTokenSignFailed).Errorf("account id and username are required")
	}

	now := t.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", oops.Code(CodeTokenSignFailed).With("account_id", accountID.String()).Wrap(err)
	}
	return signed, nil
}

// Validate verifies the token signature and then its expiry, returning the
// identity it carries.
func (t *TokenIssuer) Validate(token string) (Identity, error) {
	if token == "" {
		return Identity{}, oops.Code(CodeTokenInvalid).Errorf("token is empty")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Time-based claims are checked below against the issuer's clock.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Identity{}, oops.Code(CodeTokenInvalid).Wrap(err)
	}
	if !parsed.Valid {
		return Identity{}, oops.Code(CodeTokenInvalid).Errorf("token signature is not valid")
	}

	now := t.now()
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return Identity{}, oops.Code(CodeTokenExpired).Errorf("token has expired")
	}
	if claims.IssuedAt == nil || claims.IssuedAt.After(now.Add(maxIssuedAtSkew)) {
		return Identity{}, oops.Code(CodeTokenInvalid).Errorf("token issued-at is missing or in the future")
	}
	if claims.Issuer != t.issuer {
		return Identity{}, oops.Code(CodeTokenInvalid).With("issuer", claims.Issuer).Errorf("unexpected token issuer")
	}
	if claims.Username == "" {
		return Identity{}, oops.Code(CodeTokenInvalid).Errorf("token has no username")
	}
	accountID, err := ulid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, oops.Code(CodeTokenInvalid).With("subject", claims.Subject).Wrap(err)
	}

	return Identity{AccountID: accountID, Username: claims.Username}, nil
}
