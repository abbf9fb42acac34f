package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/auth-service/internal/auth"
	"github.com/BradenHooton/auth-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	claims *models.TokenClaims
	err    error
	seen   string
}

func (s *stubVerifier) VerifyToken(ctx context.Context, token string) (*models.TokenClaims, error) {
	s.seen = token
	return s.claims, s.err
}

func protected(t *testing.T, verifier auth.SessionVerifier) (http.Handler, *bool) {
	t.Helper()
	called := false
	h := auth.RequireSession(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims := auth.GetSessionFromContext(r)
		require.NotNil(t, claims)
		w.WriteHeader(http.StatusOK)
	}))
	return h, &called
}

func TestRequireSession_MissingCookie(t *testing.T) {
	h, called := protected(t, &stubVerifier{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, *called)
}

func TestRequireSession_InvalidToken(t *testing.T) {
	h, called := protected(t, &stubVerifier{err: models.ErrInvalidToken})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "banned"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, *called)
}

func TestRequireSession_BackendFailure(t *testing.T) {
	h, called := protected(t, &stubVerifier{err: errors.New("redis down")})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, *called)
}

func TestRequireSession_Valid(t *testing.T) {
	claims := &models.TokenClaims{}
	claims.Subject = "user@example.com"
	verifier := &stubVerifier{claims: claims}
	h, called := protected(t, verifier)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, *called)
	assert.Equal(t, "tok", verifier.seen)
}
