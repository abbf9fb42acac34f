package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BradenHooton/auth-service/internal/auth"
	"github.com/BradenHooton/auth-service/internal/models"
	"github.com/BradenHooton/auth-service/internal/services"
	pkghttp "github.com/BradenHooton/auth-service/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, email, password string, requires2FA bool) error
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Verify2FA(ctx context.Context, email, loginAttemptID, code string) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
	VerifyToken(ctx context.Context, token string) (*models.TokenClaims, error)
	TokenTTL() time.Duration
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
	cookies auth.CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, cookies auth.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
	}
}

// Request DTOs. Pointer fields tell "missing" (422) apart from "empty" (400).

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Email       *string `json:"email" validate:"required"`
	Password    *string `json:"password" validate:"required"`
	Requires2FA *bool   `json:"requires2FA" validate:"required"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    *string `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

// Verify2FARequest represents the request body for second-factor verification
type Verify2FARequest struct {
	Email          *string `json:"email" validate:"required"`
	LoginAttemptID *string `json:"LoginAttemptId" validate:"required"`
	TwoFACode      *string `json:"2FACode" validate:"required"`
}

// VerifyTokenRequest represents the request body for token verification
type VerifyTokenRequest struct {
	Token *string `json:"token" validate:"required"`
}

// TwoFARequiredResponse is returned with 206 when a login needs a second factor
type TwoFARequiredResponse struct {
	Message        string `json:"message"`
	LoginAttemptID string `json:"loginAttemptId"`
}

// SessionResponse describes the caller's live session
type SessionResponse struct {
	Email     string `json:"email"`
	ExpiresAt string `json:"expiresAt"`
}

// Signup handles account creation
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := DecodeRequest(w, r, &req); err != nil {
		pkghttp.WriteUnprocessable(w, "Unprocessable request body")
		return
	}

	if err := h.service.Signup(r.Context(), *req.Email, *req.Password, *req.Requires2FA); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteMessage(w, http.StatusCreated, "User created successfully!")
}

// Login handles credential login. Accounts with 2FA get 206 and a challenge id.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := DecodeRequest(w, r, &req); err != nil {
		pkghttp.WriteUnprocessable(w, "Unprocessable request body")
		return
	}

	result, err := h.service.Login(r.Context(), *req.Email, *req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if result.Requires2FA {
		pkghttp.WriteJSON(w, http.StatusPartialContent, TwoFARequiredResponse{
			Message:        "2FA required",
			LoginAttemptID: result.LoginAttemptID,
		})
		return
	}

	auth.SetSessionCookie(w, result.Token, h.service.TokenTTL(), h.cookies)
	pkghttp.WriteMessage(w, http.StatusOK, "Login successful")
}

// Verify2FA handles the second step of a 2FA login
func (h *AuthHandler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	var req Verify2FARequest
	if err := DecodeRequest(w, r, &req); err != nil {
		pkghttp.WriteUnprocessable(w, "Unprocessable request body")
		return
	}

	result, err := h.service.Verify2FA(r.Context(), *req.Email, *req.LoginAttemptID, *req.TwoFACode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.service.TokenTTL(), h.cookies)
	pkghttp.WriteMessage(w, http.StatusOK, "2FA verified")
}

// Logout bans the session cookie's token and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.GetSessionCookie(r)

	if err := h.service.Logout(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}

	auth.ClearSessionCookie(w, h.cookies)
	pkghttp.WriteMessage(w, http.StatusOK, "Logged out")
}

// VerifyToken lets downstream services check a token from a request body
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req VerifyTokenRequest
	if err := DecodeRequest(w, r, &req); err != nil {
		pkghttp.WriteUnprocessable(w, "Unprocessable request body")
		return
	}

	if _, err := h.service.VerifyToken(r.Context(), *req.Token); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "Token is valid")
}

// Session returns the caller's session. Mounted behind auth.RequireSession.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Invalid session")
		return
	}

	resp := SessionResponse{Email: claims.Email()}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// writeServiceError maps the service's outward errors to HTTP responses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		pkghttp.WriteBadRequest(w, "Invalid credentials")
	case errors.Is(err, models.ErrIncorrectCredentials):
		pkghttp.WriteUnauthorized(w, "Incorrect credentials")
	case errors.Is(err, models.ErrMissingToken):
		pkghttp.WriteBadRequest(w, "Missing auth token")
	case errors.Is(err, models.ErrInvalidToken):
		pkghttp.WriteUnauthorized(w, "Invalid auth token")
	case errors.Is(err, models.ErrAlreadyLoggedOut):
		pkghttp.WriteBadRequest(w, "Already logged out")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "User already exists")
	default:
		pkghttp.WriteInternalError(w, "Unexpected error")
	}
}
