// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package auth

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Error codes attached to oops errors returned by this package.
const (
	CodeInvalidInput       = "AUTH_INVALID_INPUT"
	CodeWeakPassword       = "AUTH_WEAK_PASSWORD"
	CodeEmptyPassword      = "AUTH_EMPTY_PASSWORD"
	CodeUsernameTaken      = "AUTH_USERNAME_TAKEN"
	CodeEmailTaken         = "AUTH_EMAIL_TAKEN"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeRegisterFailed     = "AUTH_REGISTER_FAILED"
	CodeLoginFailed        = "AUTH_LOGIN_FAILED"
	CodeCheckFailed        = "AUTH_CHECK_FAILED"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeAccountLookup      = "ACCOUNT_LOOKUP_FAILED"

	CodeTokenInvalid    = "TOKEN_INVALID"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeTokenSignFailed = "TOKEN_SIGN_FAILED"
	CodeTokenKeyInvalid = "TOKEN_KEY_INVALID"

	CodeOTPInvalidEmail   = "OTP_INVALID_EMAIL"
	CodeOTPIssueFailed    = "OTP_ISSUE_FAILED"
	CodeOTPDeliveryFailed = "OTP_DELIVERY_FAILED"
	CodeOTPVerifyFailed   = "OTP_VERIFY_FAILED"
	CodeOTPNotFound       = "OTP_NOT_FOUND"
)

// ErrorKind classifies errors for callers that must choose a response
// without inspecting individual codes.
type ErrorKind int

// Error kinds.
const (
	KindInternal ErrorKind = iota
	KindConflict
	KindInvalidInput
	KindUnauthorized
	KindNotFoundOrExpired
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFoundOrExpired:
		return "not_found_or_expired"
	default:
		return "internal"
	}
}

var kindsByCode = map[string]ErrorKind{
	CodeInvalidInput:       KindInvalidInput,
	CodeWeakPassword:       KindInvalidInput,
	CodeEmptyPassword:      KindInvalidInput,
	CodeOTPInvalidEmail:    KindInvalidInput,
	CodeUsernameTaken:      KindConflict,
	CodeEmailTaken:         KindConflict,
	CodeInvalidCredentials: KindUnauthorized,
	CodeTokenInvalid:       KindUnauthorized,
	CodeTokenExpired:       KindUnauthorized,
	CodeAccountNotFound:    KindNotFoundOrExpired,
	CodeOTPNotFound:        KindNotFoundOrExpired,
}

// KindOf returns the ErrorKind for err. Errors without a known code,
// including plain errors, are KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	if kind, found := kindsByCode[fmt.Sprint(oopsErr.Code())]; found {
		return kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing message for err. Internal errors
// never expose their message.
func PublicMessage(err error) string {
	if err == nil || KindOf(err) == KindInternal {
		return "Internal server error"
	}
	return err.Error()
}
