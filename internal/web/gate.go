// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/pkg/errutil"
)

// TokenValidator validates session tokens.
type TokenValidator interface {
	Validate(token string) (auth.Identity, error)
}

type identityKey struct{}

// Gate resolves the session cookie into an identity stored on the request
// context. It never rejects a request: a missing or invalid token leaves the
// request anonymous and protected handlers call RequireIdentity.
func Gate(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(TokenCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := validator.Validate(cookie.Value)
			if err != nil {
				logger.DebugContext(r.Context(), "session token rejected",
					"path", r.URL.Path,
					"code", errutil.Code(err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// ContextWithIdentity returns a copy of ctx carrying identity.
func ContextWithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity resolved by Gate.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(auth.Identity)
	return identity, ok
}

// AccountIDFromContext returns the authenticated account id.
func AccountIDFromContext(ctx context.Context) (ulid.ULID, bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return ulid.ULID{}, false
	}
	return identity.AccountID, true
}

// RequireIdentity returns the request identity, or writes 401 and reports
// false when the request is anonymous.
func RequireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return auth.Identity{}, false
	}
	return identity, true
}
