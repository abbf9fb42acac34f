package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/auth-service/internal/models"
)

// MemoryBannedTokenStore keeps banned tokens with their retention deadline
type MemoryBannedTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryBannedTokenStore creates a store that retains each token for ttl
func NewMemoryBannedTokenStore(ttl time.Duration) *MemoryBannedTokenStore {
	return &MemoryBannedTokenStore{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryBannedTokenStore) StoreToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiresAt, ok := s.tokens[token]; ok && now.Before(expiresAt) {
		return models.ErrTokenAlreadyBanned
	}

	s.tokens[token] = now.Add(s.ttl)
	return nil
}

func (s *MemoryBannedTokenStore) IsTokenBanned(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.tokens[token]
	return ok && s.now().Before(expiresAt), nil
}

// PurgeExpired drops tokens past their retention and returns how many were removed
func (s *MemoryBannedTokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for token, expiresAt := range s.tokens {
		if !now.Before(expiresAt) {
			delete(s.tokens, token)
			removed++
		}
	}
	return removed, nil
}
