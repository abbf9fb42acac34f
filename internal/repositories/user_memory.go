package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BradenHooton/auth-service/internal/models"
)

// MemoryUserStore keeps users in a map keyed by email
type MemoryUserStore struct {
	mu     sync.RWMutex
	users  map[string]models.User
	hasher PasswordHasher
	now    func() time.Time
}

// NewMemoryUserStore creates a new MemoryUserStore hashing with hasher
func NewMemoryUserStore(hasher PasswordHasher) *MemoryUserStore {
	return &MemoryUserStore{
		users:  make(map[string]models.User),
		hasher: hasher,
		now:    time.Now,
	}
}

func (s *MemoryUserStore) AddUser(ctx context.Context, user models.NewUser) error {
	s.mu.RLock()
	_, exists := s.users[user.Email.String()]
	s.mu.RUnlock()
	if exists {
		return models.ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(ctx, user.Password.String())
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock; a concurrent signup may have won
	if _, exists := s.users[user.Email.String()]; exists {
		return models.ErrUserAlreadyExists
	}

	s.users[user.Email.String()] = models.User{
		Email:        user.Email,
		PasswordHash: hash,
		Requires2FA:  user.Requires2FA,
		CreatedAt:    s.now().UTC(),
	}
	return nil
}

func (s *MemoryUserStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	if _, err := models.ParseEmail(email); err != nil {
		return nil, models.ErrUserNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &user, nil
}

func (s *MemoryUserStore) ValidateUser(ctx context.Context, email, password string) error {
	user, err := s.GetUser(ctx, email)
	return verifyCredentials(ctx, s.hasher, user, err, password)
}
