package services

import (
	"context"

	"github.com/BradenHooton/auth-service/internal/models"
)

// UserStore persists accounts. GetUser and ValidateUser treat a malformed
// email as not found.
type UserStore interface {
	AddUser(ctx context.Context, user models.NewUser) error
	GetUser(ctx context.Context, email string) (*models.User, error)
	ValidateUser(ctx context.Context, email, password string) error
}

// BannedTokenStore records logged out tokens for the rest of their validity window
type BannedTokenStore interface {
	StoreToken(ctx context.Context, token string) error
	IsTokenBanned(ctx context.Context, token string) (bool, error)
}

// TwoFACodeStore holds at most one pending second-factor challenge per email.
// RemoveCode only deletes the challenge identified by id; a superseded one is
// reported as ErrLoginAttemptIDNotFound.
type TwoFACodeStore interface {
	AddCode(ctx context.Context, email models.Email, id models.LoginAttemptID, code models.TwoFACode) error
	GetCode(ctx context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error)
	RemoveCode(ctx context.Context, email models.Email, id models.LoginAttemptID) error
}

// EmailClient delivers a message to a single recipient
type EmailClient interface {
	Send(ctx context.Context, recipient models.Email, subject, content string) error
}

// MetricsRecorder counts auth operation outcomes
type MetricsRecorder interface {
	RecordAuthOperation(operation, outcome string)
}
