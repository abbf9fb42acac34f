package repositories

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BradenHooton/auth-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoFAStore is the contract both backends satisfy
type twoFAStore interface {
	AddCode(ctx context.Context, email models.Email, id models.LoginAttemptID, code models.TwoFACode) error
	GetCode(ctx context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error)
	RemoveCode(ctx context.Context, email models.Email, id models.LoginAttemptID) error
}

func twoFABackends(t *testing.T) map[string]twoFAStore {
	_, client := newTestRedis(t)
	return map[string]twoFAStore{
		"memory": NewMemoryTwoFACodeStore(10 * time.Minute),
		"redis":  NewRedisTwoFACodeStore(client, 10*time.Minute),
	}
}

func TestTwoFACodeStore_AddGetRemove(t *testing.T) {
	for name, store := range twoFABackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			email := mustEmail(t, "user@example.com")
			id := models.NewLoginAttemptID()
			code := mustCode(t, "123456")

			require.NoError(t, store.AddCode(ctx, email, id, code))

			gotID, gotCode, err := store.GetCode(ctx, email)
			require.NoError(t, err)
			assert.Equal(t, id, gotID)
			assert.Equal(t, code, gotCode)

			require.NoError(t, store.RemoveCode(ctx, email, id))

			_, _, err = store.GetCode(ctx, email)
			assert.ErrorIs(t, err, models.ErrLoginAttemptIDNotFound)
		})
	}
}

func TestTwoFACodeStore_GetMissing(t *testing.T) {
	for name, store := range twoFABackends(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := store.GetCode(context.Background(), mustEmail(t, "nobody@example.com"))
			assert.ErrorIs(t, err, models.ErrLoginAttemptIDNotFound)
		})
	}
}

func TestTwoFACodeStore_AddRefusesOverwrite(t *testing.T) {
	for name, store := range twoFABackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			email := mustEmail(t, "user@example.com")
			first := models.NewLoginAttemptID()

			require.NoError(t, store.AddCode(ctx, email, first, mustCode(t, "111111")))
			err := store.AddCode(ctx, email, models.NewLoginAttemptID(), mustCode(t, "222222"))
			assert.ErrorIs(t, err, models.ErrChallengeExists)

			gotID, gotCode, err := store.GetCode(ctx, email)
			require.NoError(t, err)
			assert.Equal(t, first, gotID)
			assert.Equal(t, "111111", gotCode.String())
		})
	}
}

func TestTwoFACodeStore_RemoveTwiceOneWins(t *testing.T) {
	for name, store := range twoFABackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			email := mustEmail(t, "user@example.com")
			id := models.NewLoginAttemptID()
			require.NoError(t, store.AddCode(ctx, email, id, mustCode(t, "123456")))

			var wins, losses int32
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := store.RemoveCode(ctx, email, id); err == nil {
						atomic.AddInt32(&wins, 1)
					} else if assert.ErrorIs(t, err, models.ErrLoginAttemptIDNotFound) {
						atomic.AddInt32(&losses, 1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), wins)
			assert.Equal(t, int32(9), losses)
		})
	}
}

func TestTwoFACodeStore_RemoveKeyedOnAttemptID(t *testing.T) {
	for name, store := range twoFABackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			email := mustEmail(t, "user@example.com")
			stale := models.NewLoginAttemptID()
			current := models.NewLoginAttemptID()

			require.NoError(t, store.AddCode(ctx, email, current, mustCode(t, "123456")))

			err := store.RemoveCode(ctx, email, stale)
			assert.ErrorIs(t, err, models.ErrLoginAttemptIDNotFound)

			// the current challenge survives a remove for another id
			gotID, _, err := store.GetCode(ctx, email)
			require.NoError(t, err)
			assert.Equal(t, current, gotID)

			require.NoError(t, store.RemoveCode(ctx, email, current))
			assert.ErrorIs(t, store.RemoveCode(ctx, email, current), models.ErrLoginAttemptIDNotFound)
		})
	}
}

func TestTwoFACodeStore_PerEmailIsolation(t *testing.T) {
	for name, store := range twoFABackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := mustEmail(t, "a@example.com")
			b := mustEmail(t, "b@example.com")

			idA := models.NewLoginAttemptID()
			require.NoError(t, store.AddCode(ctx, a, idA, mustCode(t, "111111")))
			require.NoError(t, store.AddCode(ctx, b, models.NewLoginAttemptID(), mustCode(t, "222222")))
			require.NoError(t, store.RemoveCode(ctx, a, idA))

			_, code, err := store.GetCode(ctx, b)
			require.NoError(t, err)
			assert.Equal(t, "222222", code.String())
		})
	}
}

func TestMemoryTwoFACodeStore_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryTwoFACodeStore(10 * time.Minute)
	store.now = clock.Now
	ctx := context.Background()
	email := mustEmail(t, "user@example.com")

	require.NoError(t, store.AddCode(ctx, email, models.NewLoginAttemptID(), mustCode(t, "123456")))
	clock.Advance(10 * time.Minute)

	_, _, err := store.GetCode(ctx, email)
	assert.ErrorIs(t, err, models.ErrLoginAttemptIDNotFound)

	// An expired challenge does not block a new one
	require.NoError(t, store.AddCode(ctx, email, models.NewLoginAttemptID(), mustCode(t, "654321")))

	clock.Advance(11 * time.Minute)
	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Empty(t, store.entries)
}

func TestRedisTwoFACodeStore_ExpiryAndLayout(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisTwoFACodeStore(client, 10*time.Minute)
	ctx := context.Background()
	email := mustEmail(t, "user@example.com")
	id := models.NewLoginAttemptID()

	require.NoError(t, store.AddCode(ctx, email, id, mustCode(t, "123456")))

	raw, err := mr.Get("two_fa_code:user@example.com")
	require.NoError(t, err)
	assert.JSONEq(t, `{"login_attempt_id":"`+id.String()+`","code":"123456"}`, raw)
	assert.Equal(t, 10*time.Minute, mr.TTL("two_fa_code:user@example.com"))

	mr.FastForward(11 * time.Minute)
	_, _, err = store.GetCode(ctx, email)
	assert.ErrorIs(t, err, models.ErrLoginAttemptIDNotFound)
}

func TestRedisTwoFACodeStore_CorruptValue(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisTwoFACodeStore(client, 10*time.Minute)
	require.NoError(t, mr.Set("two_fa_code:user@example.com", "not-json"))

	_, _, err := store.GetCode(context.Background(), mustEmail(t, "user@example.com"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrLoginAttemptIDNotFound)

	// an undecodable value never matches, so it is left for its TTL
	err = store.RemoveCode(context.Background(), mustEmail(t, "user@example.com"), models.NewLoginAttemptID())
	assert.ErrorIs(t, err, models.ErrLoginAttemptIDNotFound)
	assert.True(t, mr.Exists("two_fa_code:user@example.com"))
}
