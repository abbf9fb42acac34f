package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/auth-service/internal/database"
	"github.com/BradenHooton/auth-service/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository stores users in PostgreSQL
type UserRepository struct {
	pool   *pgxpool.Pool
	hasher PasswordHasher
}

// NewUserRepository creates a new UserRepository on db
func NewUserRepository(db *database.DB, hasher PasswordHasher) *UserRepository {
	return &UserRepository{pool: db.Pool, hasher: hasher}
}

// rowScanner interface for scanning user rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var rawEmail string
	var user models.User

	err := scanner.Scan(&rawEmail, &user.PasswordHash, &user.Requires2FA, &user.CreatedAt)
	if err != nil {
		err = database.MapPostgresError(err)
		if errors.Is(err, database.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		return nil, fmt.Errorf("stored email is invalid: %w", err)
	}
	user.Email = email

	return &user, nil
}

func (r *UserRepository) AddUser(ctx context.Context, user models.NewUser) error {
	hash, err := r.hasher.Hash(ctx, user.Password.String())
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, requires_2fa, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = r.pool.Exec(ctx, query, user.Email.String(), hash, user.Requires2FA, time.Now().UTC())
	if err != nil {
		err = database.MapPostgresError(err)
		if errors.Is(err, database.ErrUniqueViolation) {
			return models.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, email string) (*models.User, error) {
	if _, err := models.ParseEmail(email); err != nil {
		return nil, models.ErrUserNotFound
	}

	query := `
		SELECT email, password_hash, requires_2fa, created_at
		FROM users WHERE email = $1
	`

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// ValidateUser checks password against the stored hash. Unknown users cost one dummy verification.
func (r *UserRepository) ValidateUser(ctx context.Context, email, password string) error {
	user, err := r.GetUser(ctx, email)
	return verifyCredentials(ctx, r.hasher, user, err, password)
}
