package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/auth-service/internal/models"
	"github.com/redis/go-redis/v9"
)

const twoFACodeKeyPrefix = "two_fa_code:"

type twoFATuple struct {
	LoginAttemptID string `json:"login_attempt_id"`
	Code           string `json:"code"`
}

// RedisTwoFACodeStore keeps pending challenges as expiring JSON values
type RedisTwoFACodeStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisTwoFACodeStore creates a new RedisTwoFACodeStore
func NewRedisTwoFACodeStore(client redis.UniversalClient, ttl time.Duration) *RedisTwoFACodeStore {
	return &RedisTwoFACodeStore{client: client, ttl: ttl}
}

func twoFACodeKey(email models.Email) string {
	return twoFACodeKeyPrefix + email.String()
}

func (s *RedisTwoFACodeStore) AddCode(ctx context.Context, email models.Email, id models.LoginAttemptID, code models.TwoFACode) error {
	payload, err := json.Marshal(twoFATuple{LoginAttemptID: id.String(), Code: code.String()})
	if err != nil {
		return fmt.Errorf("failed to encode 2fa challenge: %w", err)
	}

	set, err := s.client.SetNX(ctx, twoFACodeKey(email), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store 2fa challenge: %w", err)
	}
	if !set {
		return models.ErrChallengeExists
	}
	return nil
}

func (s *RedisTwoFACodeStore) GetCode(ctx context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error) {
	raw, err := s.client.Get(ctx, twoFACodeKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.LoginAttemptID{}, models.TwoFACode{}, models.ErrLoginAttemptIDNotFound
		}
		return models.LoginAttemptID{}, models.TwoFACode{}, fmt.Errorf("failed to read 2fa challenge: %w", err)
	}

	var tuple twoFATuple
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return models.LoginAttemptID{}, models.TwoFACode{}, fmt.Errorf("failed to decode 2fa challenge: %w", err)
	}

	id, err := models.ParseLoginAttemptID(tuple.LoginAttemptID)
	if err != nil {
		return models.LoginAttemptID{}, models.TwoFACode{}, fmt.Errorf("stored login attempt id is invalid: %w", err)
	}
	code, err := models.ParseTwoFACode(tuple.Code)
	if err != nil {
		return models.LoginAttemptID{}, models.TwoFACode{}, fmt.Errorf("stored 2fa code is invalid: %w", err)
	}

	return id, code, nil
}

// removeCodeScript deletes KEYS[1] only while its login_attempt_id equals ARGV[1]
var removeCodeScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return 0
end
local ok, tuple = pcall(cjson.decode, raw)
if not ok or tuple["login_attempt_id"] ~= ARGV[1] then
	return 0
end
return redis.call("DEL", KEYS[1])
`)

// RemoveCode deletes the challenge for email only if it is still the one
// identified by id. The check and delete run as one script.
func (s *RedisTwoFACodeStore) RemoveCode(ctx context.Context, email models.Email, id models.LoginAttemptID) error {
	n, err := removeCodeScript.Run(ctx, s.client, []string{twoFACodeKey(email)}, id.String()).Int64()
	if err != nil {
		return fmt.Errorf("failed to remove 2fa challenge: %w", err)
	}
	if n == 0 {
		return models.ErrLoginAttemptIDNotFound
	}
	return nil
}
