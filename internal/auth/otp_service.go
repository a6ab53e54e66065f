// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// OTPService issues, delivers and verifies one-time codes proving control of
// an email address.
type OTPService struct {
	repo     OTPRepository
	notifier Notifier
	opts     options
}

// NewOTPService creates a new OTPService.
func NewOTPService(repo OTPRepository, notifier Notifier, opts ...Option) (*OTPService, error) {
	if repo == nil {
		return nil, oops.Code("OTP_SERVICE_INVALID").Errorf("otp repository is required")
	}
	if notifier == nil {
		return nil, oops.Code("OTP_SERVICE_INVALID").Errorf("notifier is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &OTPService{repo: repo, notifier: notifier, opts: o}, nil
}

// Issue creates and persists a new challenge for email. Earlier challenges
// for the same recipient stay valid until they expire or are consumed.
func (s *OTPService) Issue(ctx context.Context, email string) (*OTPChallenge, error) {
	code, err := s.opts.generateCode()
	if err != nil {
		return nil, oops.Code(CodeOTPIssueFailed).With("operation", "generate code").Wrap(err)
	}

	challenge, err := NewOTPChallenge(email, code, s.opts.now(), s.opts.otpTTL)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.opts.storeTimeout)
	defer cancel()
	if err := s.repo.Create(storeCtx, challenge); err != nil {
		return nil, oops.Code(CodeOTPIssueFailed).
			With("operation", "persist challenge").
			With("email", challenge.Email).
			Wrap(err)
	}
	return challenge, nil
}

// Send issues a challenge and delivers its code. The challenge remains
// recorded when delivery fails.
func (s *OTPService) Send(ctx context.Context, email string) error {
	challenge, err := s.Issue(ctx, email)
	if err != nil {
		return err
	}

	deliverCtx, cancel := context.WithTimeout(ctx, s.opts.deliveryTimeout)
	defer cancel()
	if err := s.notifier.SendOTP(deliverCtx, challenge.Email, challenge.Code); err != nil {
		return oops.Code(CodeOTPDeliveryFailed).
			With("email", challenge.Email).
			With("challenge_id", challenge.ID.String()).
			Wrap(err)
	}

	s.opts.logger.InfoContext(ctx, "otp issued",
		"email", challenge.Email,
		"challenge_id", challenge.ID.String(),
		"expires_at", challenge.ExpiresAt)
	return nil
}

// Verify consumes the most recent unconsumed challenge matching email and
// code. It returns false when no challenge matches, when the match has
// expired, or when a concurrent caller consumed it first. An expired match is
// left unconsumed.
func (s *OTPService) Verify(ctx context.Context, email, code string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" || !IsWellFormedOTPCode(code) {
		return false, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.opts.storeTimeout)
	defer cancel()
	challenge, err := s.repo.FindLatestUnconsumed(lookupCtx, email, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, oops.Code(CodeOTPVerifyFailed).
			With("operation", "find challenge").
			With("email", email).
			Wrap(err)
	}

	now := s.opts.now()
	if challenge.IsExpiredAt(now) {
		s.opts.logger.DebugContext(ctx, "otp expired",
			"email", email,
			"challenge_id", challenge.ID.String())
		return false, nil
	}

	consumeCtx, cancelConsume := context.WithTimeout(ctx, s.opts.storeTimeout)
	defer cancelConsume()
	consumed, err := s.repo.MarkConsumed(consumeCtx, challenge.ID, now)
	if err != nil {
		return false, oops.Code(CodeOTPVerifyFailed).
			With("operation", "consume challenge").
			With("challenge_id", challenge.ID.String()).
			Wrap(err)
	}
	if !consumed {
		s.opts.logger.DebugContext(ctx, "otp already consumed",
			"email", email,
			"challenge_id", challenge.ID.String())
	}
	return consumed, nil
}
