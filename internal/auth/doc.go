// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

// Package auth provides the identity and session primitives for Fintrack.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewAccount - creates an Account with normalized username and email
//   - NewOTPChallenge - creates an OTPChallenge with a fixed expiry
//
// Direct struct initialization bypasses normalization and may create
// accounts that collide case-insensitively with existing ones.
//
// # Case Handling
//
// Usernames are stored as entered (trimmed) and compared case-insensitively.
// Emails are trimmed and lower-cased before storage and lookup.
//
// # Services
//
//   - Service - registration, login, availability probes
//   - OTPService - one-time password issue, delivery, verification
//   - TokenIssuer - stateless HS256 session tokens
//
// Services are created with New* constructors that validate dependencies.
package auth
