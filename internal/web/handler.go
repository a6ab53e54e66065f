// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/observability"
	"github.com/fintrack/fintrack/pkg/errutil"
)

// AuthService is the account side of the API.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Account, error)
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
	CheckUsername(ctx context.Context, username string) (auth.Availability, error)
	CheckEmail(ctx context.Context, email string) (auth.Availability, error)
	Account(ctx context.Context, id ulid.ULID) (auth.Summary, error)
}

// OTPService is the email verification side of the API.
type OTPService interface {
	Send(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (bool, error)
}

// Handler serves the /api routes.
type Handler struct {
	auth         AuthService
	otp          OTPService
	tokens       TokenValidator
	metrics      *observability.Metrics
	logger       *slog.Logger
	sessionTTL   time.Duration
	cookieSecure bool
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records request and auth metrics into m.
func WithMetrics(m *observability.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithSessionTTL sets the session cookie Max-Age. It should match the
// token lifetime.
func WithSessionTTL(ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		if ttl > 0 {
			h.sessionTTL = ttl
		}
	}
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) HandlerOption {
	return func(h *Handler) { h.cookieSecure = secure }
}

// NewHandler creates a Handler.
func NewHandler(authSvc AuthService, otpSvc OTPService, tokens TokenValidator, opts ...HandlerOption) *Handler {
	h := &Handler{
		auth:       authSvc,
		otp:        otpSvc,
		tokens:     tokens,
		logger:     slog.Default(),
		sessionTTL: auth.DefaultTokenExpiry,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the API with its middleware chain applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.HandleFunc("POST /api/auth/check-username", h.checkUsername)
	mux.HandleFunc("POST /api/auth/check-email", h.checkEmail)
	mux.HandleFunc("GET /api/auth/me", h.me)
	mux.HandleFunc("POST /api/otp/send", h.sendOTP)
	mux.HandleFunc("POST /api/otp/verify", h.verifyOTP)

	route := func(r *http.Request) string {
		if _, pattern := mux.Handler(r); pattern != "" {
			return pattern
		}
		return "unmatched"
	}

	var handler http.Handler = mux
	handler = Gate(h.tokens, h.logger)(handler)
	handler = securityHeaders(handler)
	handler = recoverPanics(handler, h.logger)
	return instrument(handler, route, h.metrics, h.logger)
}

type registerRequest struct {
	UserName  string `json:"userName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type registerResponse struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	account, err := h.auth.Register(r.Context(), auth.RegisterRequest{
		Username:  req.UserName,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if auth.KindOf(err) == auth.KindInternal {
			h.metrics.RecordAuth("register", observability.OutcomeError)
			errutil.LogError(h.logger, "register failed", err)
			writeError(w, http.StatusInternalServerError, msgInternal)
			return
		}
		h.metrics.RecordAuth("register", observability.OutcomeRejected)
		writeError(w, http.StatusBadRequest, auth.PublicMessage(err))
		return
	}

	h.metrics.RecordAuth("register", observability.OutcomeSuccess)
	writeJSON(w, http.StatusOK, registerResponse{
		Message:  "User registered successfully",
		UserID:   account.ID.String(),
		UserName: account.Username,
	})
}

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type accountResponse struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func newAccountResponse(s auth.Summary) accountResponse {
	return accountResponse{
		UserID:    s.ID.String(),
		UserName:  s.Username,
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}
}

type loginResponse struct {
	Message string `json:"message"`
	accountResponse
	Token string `json:"token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	result, err := h.auth.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		if auth.KindOf(err) == auth.KindUnauthorized {
			h.metrics.RecordAuth("login", observability.OutcomeRejected)
			writeError(w, http.StatusUnauthorized, auth.PublicMessage(err))
			return
		}
		h.metrics.RecordAuth("login", observability.OutcomeError)
		errutil.LogError(h.logger, "login failed", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	h.metrics.RecordAuth("login", observability.OutcomeSuccess)
	http.SetCookie(w, sessionCookie(result.Token, h.sessionTTL, h.cookieSecure))
	writeJSON(w, http.StatusOK, loginResponse{
		Message:         "Login successful",
		accountResponse: newAccountResponse(result.Account),
		Token:           result.Token,
	})
}

func (h *Handler) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, expiredCookie(h.cookieSecure))
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

type availabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

func (h *Handler) checkUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"userName"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	availability, err := h.auth.CheckUsername(r.Context(), req.UserName)
	if err != nil {
		h.metrics.RecordAuth("check_username", observability.OutcomeError)
		errutil.LogError(h.logger, "username check failed", err)
		writeError(w, http.StatusInternalServerError, "Failed to check Username")
		return
	}
	h.metrics.RecordAuth("check_username", observability.OutcomeSuccess)
	writeJSON(w, http.StatusOK, availabilityResponse{Available: availability.Available, Message: availability.Message})
}

func (h *Handler) checkEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	availability, err := h.auth.CheckEmail(r.Context(), req.Email)
	if err != nil {
		h.metrics.RecordAuth("check_email", observability.OutcomeError)
		errutil.LogError(h.logger, "email check failed", err)
		writeError(w, http.StatusInternalServerError, "Failed to check email")
		return
	}
	h.metrics.RecordAuth("check_email", observability.OutcomeSuccess)
	writeJSON(w, http.StatusOK, availabilityResponse{Available: availability.Available, Message: availability.Message})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, ok := RequireIdentity(w, r)
	if !ok {
		return
	}

	summary, err := h.auth.Account(r.Context(), identity.AccountID)
	if err != nil {
		if auth.KindOf(err) == auth.KindNotFoundOrExpired {
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		errutil.LogError(h.logger, "account lookup failed", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, newAccountResponse(summary))
}

func (h *Handler) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, otpResponse{Message: msgInvalidBody})
		return
	}

	if err := h.otp.Send(r.Context(), req.Email); err != nil {
		h.metrics.RecordOTP(observability.OTPSendFailed)
		errutil.LogError(h.logger, "otp send failed", err)
		writeJSON(w, http.StatusInternalServerError, otpResponse{Message: "Failed to send OTP to: " + req.Email})
		return
	}
	h.metrics.RecordOTP(observability.OTPSent)
	writeJSON(w, http.StatusOK, otpResponse{Message: "OTP sent to " + req.Email, Success: true})
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, otpResponse{Message: msgInvalidBody})
		return
	}

	ok, err := h.otp.Verify(r.Context(), req.Email, req.OTP)
	switch {
	case err != nil:
		h.metrics.RecordOTP(observability.OTPVerifyFailed)
		errutil.LogError(h.logger, "otp verify failed", err)
		writeJSON(w, http.StatusInternalServerError, otpResponse{Message: "Error verifying OTP"})
	case !ok:
		h.metrics.RecordOTP(observability.OTPRejected)
		writeJSON(w, http.StatusBadRequest, otpResponse{Message: "Invalid or expired OTP"})
	default:
		h.metrics.RecordOTP(observability.OTPVerified)
		writeJSON(w, http.StatusOK, otpResponse{Message: "OTP verified successfully", Success: true})
	}
}
