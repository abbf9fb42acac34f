package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims of a session token. Subject holds the user's email.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// Email returns the subject claim
func (c *TokenClaims) Email() string {
	return c.Subject
}
