package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/auth-service/internal/models"
	pkghttp "github.com/BradenHooton/auth-service/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing session claims in context
	SessionContextKey contextKey = "session"
)

// SessionVerifier checks a session token against revocation and validity
type SessionVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.TokenClaims, error)
}

// RequireSession rejects requests without a live session cookie and injects the claims into context.
// Downstream services mount it in front of routes that need an authenticated user.
func RequireSession(verifier SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := GetSessionCookie(r)
			if token == "" {
				pkghttp.WriteUnauthorized(w, "Missing session")
				return
			}

			claims, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, models.ErrInvalidToken) {
					pkghttp.WriteUnauthorized(w, "Invalid session")
					return
				}
				pkghttp.WriteError(w, http.StatusServiceUnavailable, "unavailable", "Unable to verify session")
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext extracts session claims from request context
func GetSessionFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(SessionContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
