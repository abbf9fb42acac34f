package repositories

import (
	"testing"
	"time"

	"github.com/BradenHooton/auth-service/internal/models"
	pkgauth "github.com/BradenHooton/auth-service/pkg/auth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestHasher(t *testing.T) *pkgauth.Hasher {
	t.Helper()
	h, err := pkgauth.NewHasher(pkgauth.HasherConfig{
		MemoryKB:    1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
		Workers:     4,
	})
	require.NoError(t, err)
	return h
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func mustEmail(t *testing.T, raw string) models.Email {
	t.Helper()
	e, err := models.ParseEmail(raw)
	require.NoError(t, err)
	return e
}

func mustPassword(t *testing.T, raw string) models.Password {
	t.Helper()
	p, err := models.ParsePassword(raw)
	require.NoError(t, err)
	return p
}

func mustCode(t *testing.T, raw string) models.TwoFACode {
	t.Helper()
	c, err := models.ParseTwoFACode(raw)
	require.NoError(t, err)
	return c
}

// fakeClock is advanced manually by tests
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
