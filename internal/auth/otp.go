// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// OTP configuration.
const (
	// OTPLength is the number of digits in a code.
	OTPLength = 6

	// DefaultOTPExpiry is how long an issued code remains valid.
	DefaultOTPExpiry = 5 * time.Minute

	otpMin   = 100000
	otpRange = 900000
)

// GenerateOTPCode returns a uniformly random code in [100000, 999999].
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", oops.Code("OTP_GENERATE_FAILED").Wrap(err)
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// IsWellFormedOTPCode reports whether code has the shape GenerateOTPCode produces.
func IsWellFormedOTPCode(code string) bool {
	if len(code) != OTPLength || code[0] == '0' {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// OTPChallenge is a single issued code for a recipient.
type OTPChallenge struct {
	ID         ulid.ULID
	Email      string
	Code       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Consumed   bool
	ConsumedAt *time.Time
}

// NewOTPChallenge creates an unconsumed challenge that expires ttl after now.
func NewOTPChallenge(email, code string, now time.Time, ttl time.Duration) (*OTPChallenge, error) {
	email = NormalizeEmail(email)
	if ValidateEmail(email) != nil {
		return nil, oops.Code(CodeOTPInvalidEmail).With("email", email).Errorf("email is not a valid address")
	}
	if !IsWellFormedOTPCode(code) {
		return nil, oops.Code("OTP_INVALID_CODE").Errorf("code must be %d digits", OTPLength)
	}
	if ttl <= 0 {
		return nil, oops.Code("OTP_INVALID_TTL").With("ttl", ttl).Errorf("ttl must be positive")
	}
	return &OTPChallenge{
		ID:        ulid.Make(),
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// IsExpiredAt returns true if the challenge is past its expiry at t.
func (c *OTPChallenge) IsExpiredAt(t time.Time) bool {
	return t.After(c.ExpiresAt)
}

// OTPRepository persists issued challenges. History is append-only.
type OTPRepository interface {
	// Create stores a new challenge.
	Create(ctx context.Context, challenge *OTPChallenge) error

	// FindLatestUnconsumed returns the most recently created challenge for
	// email and code that has not been consumed.
	// Returns ErrNotFound if none exists.
	FindLatestUnconsumed(ctx context.Context, email, code string) (*OTPChallenge, error)

	// MarkConsumed atomically consumes the challenge if it is still
	// unconsumed. It returns false when another caller consumed it first.
	MarkConsumed(ctx context.Context, id ulid.ULID, at time.Time) (bool, error)
}

// Notifier delivers an issued code to its recipient.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
}
