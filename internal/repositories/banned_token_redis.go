package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/auth-service/internal/models"
	"github.com/redis/go-redis/v9"
)

const bannedTokenKeyPrefix = "banned_token:"

// RedisBannedTokenStore bans tokens as self-expiring Redis keys
type RedisBannedTokenStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisBannedTokenStore creates a new RedisBannedTokenStore retaining bans for ttl
func NewRedisBannedTokenStore(client redis.UniversalClient, ttl time.Duration) *RedisBannedTokenStore {
	return &RedisBannedTokenStore{client: client, ttl: ttl}
}

func bannedTokenKey(token string) string {
	return bannedTokenKeyPrefix + token
}

func (s *RedisBannedTokenStore) StoreToken(ctx context.Context, token string) error {
	set, err := s.client.SetNX(ctx, bannedTokenKey(token), 1, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to ban token: %w", err)
	}
	if !set {
		return models.ErrTokenAlreadyBanned
	}
	return nil
}

func (s *RedisBannedTokenStore) IsTokenBanned(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, bannedTokenKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check banned token: %w", err)
	}
	return n > 0, nil
}
