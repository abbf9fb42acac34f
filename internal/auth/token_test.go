package auth

import (
	"testing"
	"time"

	"github.com/BradenHooton/auth-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!!"

func mustEmail(t *testing.T, raw string) models.Email {
	t.Helper()
	email, err := models.ParseEmail(raw)
	require.NoError(t, err)
	return email
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute)
	email := mustEmail(t, "user@example.com")

	token, expiresAt, err := tm.Issue(email)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 2*time.Second)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email())
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_IssueUniquePerCall(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute)
	email := mustEmail(t, "user@example.com")

	a, _, err := tm.Issue(email)
	require.NoError(t, err)
	b, _, err := tm.Issue(email)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	token, _, err := tm.Issue(mustEmail(t, "user@example.com"))
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestTokenManager_BadSignature(t *testing.T) {
	issuer := NewTokenManager(testSecret, time.Minute)
	other := NewTokenManager("another-secret-32-characters-long", time.Minute)

	token, _, err := issuer.Issue(mustEmail(t, "user@example.com"))
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, models.ErrTokenSignature)

	// flip a character well inside the signature segment
	i := len(token) - 5
	replacement := "A"
	if token[i] == 'A' {
		replacement = "B"
	}
	tampered := token[:i] + replacement + token[i+1:]
	_, err = issuer.Validate(tampered)
	assert.ErrorIs(t, err, models.ErrTokenSignature)
}

func TestTokenManager_Malformed(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := tm.Validate(token)
		assert.ErrorIs(t, err, models.ErrTokenMalformed, token)
	}
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)

	claims := jwt.RegisteredClaims{
		Subject:   "user@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_MissingExpiry(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user@example.com"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, models.ErrTokenMalformed)
}
