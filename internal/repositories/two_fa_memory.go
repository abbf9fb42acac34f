package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/auth-service/internal/models"
)

type twoFAEntry struct {
	id        models.LoginAttemptID
	code      models.TwoFACode
	expiresAt time.Time
}

// MemoryTwoFACodeStore keeps one pending challenge per email
type MemoryTwoFACodeStore struct {
	mu      sync.RWMutex
	entries map[string]twoFAEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryTwoFACodeStore creates a new MemoryTwoFACodeStore
func NewMemoryTwoFACodeStore(ttl time.Duration) *MemoryTwoFACodeStore {
	return &MemoryTwoFACodeStore{
		entries: make(map[string]twoFAEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryTwoFACodeStore) AddCode(ctx context.Context, email models.Email, id models.LoginAttemptID, code models.TwoFACode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.entries[email.String()]; ok && now.Before(existing.expiresAt) {
		return models.ErrChallengeExists
	}

	s.entries[email.String()] = twoFAEntry{id: id, code: code, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryTwoFACodeStore) GetCode(ctx context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[email.String()]
	if !ok || !s.now().Before(entry.expiresAt) {
		return models.LoginAttemptID{}, models.TwoFACode{}, models.ErrLoginAttemptIDNotFound
	}
	return entry.id, entry.code, nil
}

// RemoveCode deletes the challenge for email only if it is still the one
// identified by id. A superseded, expired or missing challenge is not found.
func (s *MemoryTwoFACodeStore) RemoveCode(ctx context.Context, email models.Email, id models.LoginAttemptID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[email.String()]
	if !ok || entry.id != id {
		return models.ErrLoginAttemptIDNotFound
	}
	delete(s.entries, email.String())

	if !s.now().Before(entry.expiresAt) {
		return models.ErrLoginAttemptIDNotFound
	}
	return nil
}

// PurgeExpired drops lapsed challenges and returns how many were removed
func (s *MemoryTwoFACodeStore) PurgeExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for email, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, email)
			removed++
		}
	}
	return removed, nil
}
