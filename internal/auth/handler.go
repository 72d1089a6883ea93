package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/soumadip-dev/AuthSystem-API/internal/account"
	"github.com/soumadip-dev/AuthSystem-API/internal/httputil"
	"github.com/soumadip-dev/AuthSystem-API/internal/logging"
)

// Handler contains HTTP handlers for the account authentication endpoints
type Handler struct {
	service      *Service
	logger       *logging.Logger
	isProduction bool
	sessionTTL   time.Duration
}

func NewHandler(service *Service, logger *logging.Logger, isProduction bool, sessionTTL time.Duration) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		isProduction: isProduction,
		sessionTTL:   sessionTTL,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 200)),
	)
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// VerifyRequest represents the verification confirmation body
type VerifyRequest struct {
	Token string `json:"token"`
}

// ForgotPasswordRequest represents the password reset request body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
	)
}

// ResetPasswordRequest represents the password reset confirmation body
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(1, 200)),
	)
}

// AccountResponse represents an account in API responses.
// Credential and code fields are never included.
type AccountResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Account AccountResponse `json:"account"`
	Token   string          `json:"token"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func toAccountResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID,
		Name:      acc.Name,
		Email:     acc.Email,
		Verified:  acc.Verified,
		CreatedAt: acc.CreatedAt,
	}
}

// Register handles account registration
// @Summary      Register a new account
// @Description  Create a new account with name, email and password. A verification email is sent.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration fields"
// @Success      201 {object} AccountResponse
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} ErrorResponse "Email already exists"
// @Failure      502 {object} ErrorResponse "Account created but verification email failed"
// @Router       /accounts [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("registration failed: validation error", "error", err.Error())
		respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newAccount, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrDuplicateEmail):
			logger.Warn("registration failed: email already exists")
			respondError(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrEmailRequired), errors.Is(err, ErrPasswordRequired):
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			logger.Warn("registration failed: invalid email format")
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrWeakPassword):
			logger.Warn("registration failed: weak password")
			respondError(w, err.Error(), httputil.CodeWeakPassword, http.StatusBadRequest)
		case errors.Is(err, ErrNotification):
			// The account is persisted; only the dispatch failed.
			logger.Error("registration succeeded but verification email failed", "error", err.Error())
			respondError(w, "account created, but the verification email could not be sent; please request a new one", httputil.CodeNotificationFailed, http.StatusBadGateway)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			respondError(w, "failed to register account", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("account registered successfully", "account_id", newAccount.ID)
	respondJSON(w, toAccountResponse(newAccount), http.StatusCreated)
}

// RequestVerification handles verification email (re)dispatch
// @Summary      Request a verification email
// @Description  Issue a fresh verification token for the authenticated account and send it. Replaces any outstanding token.
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Already verified"
// @Failure      401 {object} ErrorResponse "Unauthenticated"
// @Failure      404 {object} ErrorResponse "Account not found"
// @Router       /accounts/verification [post]
func (h *Handler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	accountID, ok := GetAccountIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	err := h.service.RequestVerification(r.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			logger.Warn("verification request failed: account not found")
			respondError(w, "account not found", httputil.CodeNotFound, http.StatusNotFound)
		case errors.Is(err, ErrAlreadyVerified):
			logger.Warn("verification request failed: already verified")
			respondError(w, "account is already verified", httputil.CodeAlreadyVerified, http.StatusBadRequest)
		case errors.Is(err, ErrNotification):
			logger.Error("verification email dispatch failed", "error", err.Error())
			respondError(w, "verification email could not be sent; please try again", httputil.CodeNotificationFailed, http.StatusBadGateway)
		default:
			logger.Error("verification request failed: internal error", "error", err.Error())
			respondError(w, "failed to request verification", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("verification email requested", "account_id", accountID)
	respondJSON(w, map[string]string{
		"message": "Verification email sent. Please check your inbox.",
	}, http.StatusOK)
}

// VerifyAccount handles verification confirmation
// @Summary      Verify an account
// @Description  Confirm email ownership with the emailed link token. Verifying an already verified account fails.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body VerifyRequest false "Verification token (or pass as ?token=)"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid, expired, or already used token"
// @Router       /accounts/verification/confirm [post]
func (h *Handler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Token arrives in the body from the frontend form, or as a query
	// parameter when the emailed link is opened directly.
	var req VerifyRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Token == "" {
		req.Token = r.URL.Query().Get("token")
	}

	if req.Token == "" {
		respondError(w, "verification token required", httputil.CodeTokenRequired, http.StatusBadRequest)
		return
	}

	err := h.service.VerifyAccount(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrVerificationExpired):
			logger.Warn("verification failed: token expired")
			respondError(w, "Verification link has expired. Please request a new one.", httputil.CodeTokenExpired, http.StatusBadRequest)
		case errors.Is(err, ErrAlreadyVerified):
			logger.Warn("verification failed: already verified")
			respondError(w, "This account is already verified. You can login now.", httputil.CodeAlreadyVerified, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidVerificationToken):
			logger.Warn("verification failed: invalid token")
			respondError(w, "Invalid verification token.", httputil.CodeInvalidToken, http.StatusBadRequest)
		default:
			logger.Error("verification failed: internal error", "error", err.Error())
			respondError(w, "failed to verify account", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("account verified successfully")
	respondJSON(w, map[string]string{
		"message": "Account verified successfully. You can now login.",
	}, http.StatusOK)
}

// Login handles session creation
// @Summary      Login
// @Description  Authenticate with email and password and receive a session token, also set as an HTTP-only cookie.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      401 {object} ErrorResponse "Invalid credentials or unverified account"
// @Router       /sessions [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	acc, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrNotVerified):
			logger.Warn("login failed: account not verified")
			respondError(w, "account not verified, please check your inbox", httputil.CodeNotVerified, http.StatusUnauthorized)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("login successful", "account_id", acc.ID)

	SetSessionCookie(w, token, h.isProduction, h.sessionTTL)
	respondJSON(w, LoginResponse{
		Account: toAccountResponse(acc),
		Token:   token,
	}, http.StatusOK)
}

// Logout handles session termination
// @Summary      Logout
// @Description  Clear the session cookie. Tokens are self-contained, so there is no server-side revocation.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]string
// @Router       /sessions [delete]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ClearSessionCookie(w, h.isProduction)

	logger.Info("logged out successfully")
	respondJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// GetCurrentAccount returns the account bound to the session
// @Summary      Current account
// @Description  Return the authenticated account. Credential fields are never included.
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} AccountResponse
// @Failure      401 {object} ErrorResponse "Unauthenticated"
// @Failure      404 {object} ErrorResponse "Account not found"
// @Router       /accounts/me [get]
func (h *Handler) GetCurrentAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	accountID, ok := GetAccountIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	acc, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			respondError(w, "account not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load current account", "error", err.Error())
		respondError(w, "failed to load account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, toAccountResponse(acc), http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Issue a fresh reset token for the account and email it. Replaces any outstanding token.
// @Tags         password-resets
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      404 {object} ErrorResponse "No account with that email"
// @Router       /password-resets [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	err := h.service.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			logger.Warn("password reset request failed: account not found")
			respondError(w, "account not found", httputil.CodeNotFound, http.StatusNotFound)
		case errors.Is(err, ErrNotification):
			logger.Error("password reset email dispatch failed", "error", err.Error())
			respondError(w, "reset email could not be sent; please try again", httputil.CodeNotificationFailed, http.StatusBadGateway)
		default:
			logger.Error("password reset request failed: internal error", "error", err.Error())
			respondError(w, "failed to request password reset", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset email requested")
	respondJSON(w, map[string]string{
		"message": "Password reset email sent. Please check your inbox.",
	}, http.StatusOK)
}

// ResetPassword handles password reset confirmation
// @Summary      Reset password
// @Description  Replace the password using a valid reset token. The new password must satisfy the strength policy and differ from the current one.
// @Tags         password-resets
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Email, reset token and new password"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request, token, or password"
// @Failure      404 {object} ErrorResponse "No account with that email"
// @Router       /password-resets/confirm [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			logger.Warn("password reset failed: account not found")
			respondError(w, "account not found", httputil.CodeNotFound, http.StatusNotFound)
		case errors.Is(err, ErrInvalidResetToken):
			logger.Warn("password reset failed: invalid token")
			respondError(w, "invalid reset token", httputil.CodeInvalidToken, http.StatusBadRequest)
		case errors.Is(err, ErrResetExpired):
			logger.Warn("password reset failed: token expired")
			respondError(w, "reset token has expired, please request a new one", httputil.CodeTokenExpired, http.StatusBadRequest)
		case errors.Is(err, ErrWeakPassword):
			logger.Warn("password reset failed: weak password")
			respondError(w, err.Error(), httputil.CodeWeakPassword, http.StatusBadRequest)
		case errors.Is(err, ErrSamePassword):
			logger.Warn("password reset failed: same password")
			respondError(w, err.Error(), httputil.CodeSamePassword, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("password reset failed: internal error", "error", err.Error())
			respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset successfully")
	respondJSON(w, map[string]string{
		"message": "Password reset successfully. You can now login with your new password.",
	}, http.StatusOK)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
