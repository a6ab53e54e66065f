// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/store"
)

// OTPRepository implements auth.OTPRepository using PostgreSQL.
type OTPRepository struct {
	db store.Querier
}

var _ auth.OTPRepository = (*OTPRepository)(nil)

// NewOTPRepository creates a new OTPRepository.
func NewOTPRepository(db store.Querier) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create stores a new challenge.
func (r *OTPRepository) Create(ctx context.Context, challenge *auth.OTPChallenge) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO email_otps (id, email, code, created_at, expires_at, consumed)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`,
		challenge.ID.String(),
		challenge.Email,
		challenge.Code,
		challenge.CreatedAt,
		challenge.ExpiresAt,
	)
	if err != nil {
		return oops.Code("OTP_CREATE_FAILED").
			With("operation", "insert challenge").
			With("email", challenge.Email).
			Wrap(err)
	}
	return nil
}

// FindLatestUnconsumed returns the newest unconsumed challenge matching
// email and code. Expired rows are returned; the caller decides validity.
func (r *OTPRepository) FindLatestUnconsumed(ctx context.Context, email, code string) (*auth.OTPChallenge, error) {
	var (
		c     auth.OTPChallenge
		idStr string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, email, code, created_at, expires_at
		FROM email_otps
		WHERE email = $1 AND code = $2 AND consumed = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, email, code).Scan(&idStr, &c.Email, &c.Code, &c.CreatedAt, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(auth.CodeOTPNotFound).With("email", email).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("OTP_QUERY_FAILED").
			With("operation", "find latest unconsumed").
			With("email", email).
			Wrap(err)
	}

	c.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("OTP_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	return &c, nil
}

// MarkConsumed flips consumed for id only if it is still unconsumed, so at
// most one concurrent caller observes true.
func (r *OTPRepository) MarkConsumed(ctx context.Context, id ulid.ULID, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE email_otps
		SET consumed = TRUE, consumed_at = $2
		WHERE id = $1 AND consumed = FALSE
	`, id.String(), at)
	if err != nil {
		return false, oops.Code("OTP_CONSUME_FAILED").
			With("operation", "mark consumed").
			With("id", id.String()).
			Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}
