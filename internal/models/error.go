package models

import "errors"

// Store-level sentinel errors returned by the user, banned-token and 2FA stores
var (
	ErrUserAlreadyExists      = errors.New("user already exists")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrTokenAlreadyBanned     = errors.New("token already banned")
	ErrLoginAttemptIDNotFound = errors.New("login attempt id not found")
	ErrChallengeExists        = errors.New("pending 2fa challenge already exists")
)

// Token codec errors
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
)

// Value type parse errors
var (
	ErrInvalidEmail          = errors.New("invalid email")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrInvalidLoginAttemptID = errors.New("invalid login attempt id")
	ErrInvalidTwoFACode      = errors.New("invalid 2fa code")
)

// Outward taxonomy. The auth service only ever returns these.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrMissingToken         = errors.New("missing token")
	ErrInvalidToken         = errors.New("invalid token")
	ErrAlreadyLoggedOut     = errors.New("already logged out")
	ErrConflict             = errors.New("resource already exists")
	ErrInternalServer       = errors.New("internal server error")
)
