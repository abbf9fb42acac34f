package services

import (
	"context"
	"sync"

	"github.com/BradenHooton/auth-service/internal/models"
)

// MockUserStore implements UserStore for testing
type MockUserStore struct {
	AddUserFunc      func(ctx context.Context, user models.NewUser) error
	GetUserFunc      func(ctx context.Context, email string) (*models.User, error)
	ValidateUserFunc func(ctx context.Context, email, password string) error
}

func (m *MockUserStore) AddUser(ctx context.Context, user models.NewUser) error {
	if m.AddUserFunc != nil {
		return m.AddUserFunc(ctx, user)
	}
	return nil
}

func (m *MockUserStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, email)
	}
	return nil, models.ErrUserNotFound
}

func (m *MockUserStore) ValidateUser(ctx context.Context, email, password string) error {
	if m.ValidateUserFunc != nil {
		return m.ValidateUserFunc(ctx, email, password)
	}
	return models.ErrUserNotFound
}

// MockBannedTokenStore implements BannedTokenStore for testing
type MockBannedTokenStore struct {
	StoreTokenFunc    func(ctx context.Context, token string) error
	IsTokenBannedFunc func(ctx context.Context, token string) (bool, error)
}

func (m *MockBannedTokenStore) StoreToken(ctx context.Context, token string) error {
	if m.StoreTokenFunc != nil {
		return m.StoreTokenFunc(ctx, token)
	}
	return nil
}

func (m *MockBannedTokenStore) IsTokenBanned(ctx context.Context, token string) (bool, error) {
	if m.IsTokenBannedFunc != nil {
		return m.IsTokenBannedFunc(ctx, token)
	}
	return false, nil
}

// MockTwoFACodeStore implements TwoFACodeStore for testing
type MockTwoFACodeStore struct {
	AddCodeFunc    func(ctx context.Context, email models.Email, id models.LoginAttemptID, code models.TwoFACode) error
	GetCodeFunc    func(ctx context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error)
	RemoveCodeFunc func(ctx context.Context, email models.Email, id models.LoginAttemptID) error
}

func (m *MockTwoFACodeStore) AddCode(ctx context.Context, email models.Email, id models.LoginAttemptID, code models.TwoFACode) error {
	if m.AddCodeFunc != nil {
		return m.AddCodeFunc(ctx, email, id, code)
	}
	return nil
}

func (m *MockTwoFACodeStore) GetCode(ctx context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error) {
	if m.GetCodeFunc != nil {
		return m.GetCodeFunc(ctx, email)
	}
	return models.LoginAttemptID{}, models.TwoFACode{}, models.ErrLoginAttemptIDNotFound
}

func (m *MockTwoFACodeStore) RemoveCode(ctx context.Context, email models.Email, id models.LoginAttemptID) error {
	if m.RemoveCodeFunc != nil {
		return m.RemoveCodeFunc(ctx, email, id)
	}
	return nil
}

// SentEmail is one message captured by CapturingEmailClient
type SentEmail struct {
	Recipient string
	Subject   string
	Content   string
}

// CapturingEmailClient records every message instead of sending it
type CapturingEmailClient struct {
	mu   sync.Mutex
	Sent []SentEmail
	Err  error
}

func (c *CapturingEmailClient) Send(ctx context.Context, recipient models.Email, subject, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return c.Err
	}
	c.Sent = append(c.Sent, SentEmail{Recipient: recipient.String(), Subject: subject, Content: content})
	return nil
}

// Last returns the most recent message, or the zero value
func (c *CapturingEmailClient) Last() SentEmail {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.Sent) == 0 {
		return SentEmail{}
	}
	return c.Sent[len(c.Sent)-1]
}

// RecordingMetrics counts operation outcomes in memory
type RecordingMetrics struct {
	mu     sync.Mutex
	Counts map[string]int
}

func (r *RecordingMetrics) RecordAuthOperation(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Counts == nil {
		r.Counts = make(map[string]int)
	}
	r.Counts[operation+"/"+outcome]++
}

func (r *RecordingMetrics) Count(operation, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Counts[operation+"/"+outcome]
}
