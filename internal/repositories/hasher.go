package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/BradenHooton/auth-service/internal/models"
)

// PasswordHasher is the subset of pkg/auth.Hasher the user stores need
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, encodedHash, password string) (bool, error)
	VerifyDummy(ctx context.Context, password string) error
}

// verifyCredentials checks password against the looked up user. When the
// lookup failed with ErrUserNotFound a dummy verification runs first so both
// failure paths cost one hash.
func verifyCredentials(ctx context.Context, hasher PasswordHasher, user *models.User, lookupErr error, password string) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, models.ErrUserNotFound) {
			if err := hasher.VerifyDummy(ctx, password); err != nil {
				return fmt.Errorf("dummy verification failed: %w", err)
			}
		}
		return lookupErr
	}

	ok, err := hasher.Verify(ctx, user.PasswordHash, password)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return models.ErrInvalidCredentials
	}
	return nil
}
