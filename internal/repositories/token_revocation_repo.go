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

// TokenRevocationRepository stores banned tokens in PostgreSQL
type TokenRevocationRepository struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewTokenRevocationRepository creates a new TokenRevocationRepository retaining bans for ttl
func NewTokenRevocationRepository(db *database.DB, ttl time.Duration) *TokenRevocationRepository {
	return &TokenRevocationRepository{pool: db.Pool, ttl: ttl, now: time.Now}
}

// StoreToken adds a token to the ban list. A row whose retention has lapsed
// is replaced rather than reported as a duplicate.
func (r *TokenRevocationRepository) StoreToken(ctx context.Context, token string) error {
	now := r.now().UTC()

	query := `
		INSERT INTO banned_tokens (token, banned_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE
			SET banned_at = EXCLUDED.banned_at, expires_at = EXCLUDED.expires_at
			WHERE banned_tokens.expires_at <= EXCLUDED.banned_at
	`

	result, err := r.pool.Exec(ctx, query, token, now, now.Add(r.ttl))
	if err != nil {
		err = database.MapPostgresError(err)
		if errors.Is(err, database.ErrUniqueViolation) {
			return models.ErrTokenAlreadyBanned
		}
		return fmt.Errorf("failed to ban token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrTokenAlreadyBanned
	}
	return nil
}

// IsTokenBanned checks if a token is in the ban list and still retained
func (r *TokenRevocationRepository) IsTokenBanned(ctx context.Context, token string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM banned_tokens WHERE token = $1 AND expires_at > $2)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, token, r.now().UTC()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check banned token: %w", database.MapPostgresError(err))
	}

	return exists, nil
}

// PurgeExpired removes banned tokens past their retention (call periodically)
func (r *TokenRevocationRepository) PurgeExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM banned_tokens WHERE expires_at <= $1`

	result, err := r.pool.Exec(ctx, query, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge banned tokens: %w", database.MapPostgresError(err))
	}

	return result.RowsAffected(), nil
}
