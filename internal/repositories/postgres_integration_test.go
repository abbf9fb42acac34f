//go:build integration

package repositories

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/auth-service/internal/database"
	"github.com/BradenHooton/auth-service/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testPool *pgxpool.Pool

// TestMain starts one PostgreSQL container for the package and migrates it
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("auth_service"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	code := func() int {
		defer container.Terminate(ctx)

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
			return 1
		}

		testPool, err = pgxpool.New(ctx, connStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create connection pool: %v\n", err)
			return 1
		}
		defer testPool.Close()

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if err := database.Migrate(ctx, testPool, logger); err != nil {
			fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
			return 1
		}

		return m.Run()
	}()

	os.Exit(code)
}

// newTestDB truncates every table and returns a DB wrapper around the shared pool
func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	_, err := testPool.Exec(context.Background(), "TRUNCATE TABLE users, banned_tokens")
	require.NoError(t, err)
	return &database.DB{Pool: testPool}
}

func TestMigrate_Idempotent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.NoError(t, database.Migrate(context.Background(), testPool, logger))
}

func TestUserRepository_AddAndGet(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), newTestHasher(t))
	ctx := context.Background()

	err := repo.AddUser(ctx, models.NewUser{
		Email:       mustEmail(t, "user@example.com"),
		Password:    mustPassword(t, "password123"),
		Requires2FA: true,
	})
	require.NoError(t, err)

	user, err := repo.GetUser(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email.String())
	assert.True(t, user.Requires2FA)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserRepository_Duplicate(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), newTestHasher(t))
	ctx := context.Background()

	user := models.NewUser{Email: mustEmail(t, "dup@example.com"), Password: mustPassword(t, "password123")}
	require.NoError(t, repo.AddUser(ctx, user))

	err := repo.AddUser(ctx, user)
	assert.ErrorIs(t, err, models.ErrUserAlreadyExists)
}

func TestUserRepository_ConcurrentSignupSingleWinner(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), newTestHasher(t))
	user := models.NewUser{Email: mustEmail(t, "race@example.com"), Password: mustPassword(t, "password123")}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.AddUser(context.Background(), user)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, models.ErrUserAlreadyExists)
	}
	assert.Equal(t, 1, wins)
}

func TestUserRepository_ValidateUser(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), newTestHasher(t))
	ctx := context.Background()

	require.NoError(t, repo.AddUser(ctx, models.NewUser{
		Email:    mustEmail(t, "user@example.com"),
		Password: mustPassword(t, "password123"),
	}))

	assert.NoError(t, repo.ValidateUser(ctx, "user@example.com", "password123"))
	assert.ErrorIs(t, repo.ValidateUser(ctx, "user@example.com", "wrongpass1"), models.ErrInvalidCredentials)
	assert.ErrorIs(t, repo.ValidateUser(ctx, "nobody@example.com", "password123"), models.ErrUserNotFound)
	assert.ErrorIs(t, repo.ValidateUser(ctx, "not-an-email", "password123"), models.ErrUserNotFound)
}

func TestTokenRevocationRepository_StoreAndCheck(t *testing.T) {
	repo := NewTokenRevocationRepository(newTestDB(t), 10*time.Minute)
	ctx := context.Background()

	banned, err := repo.IsTokenBanned(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, banned)

	require.NoError(t, repo.StoreToken(ctx, "token-a"))
	assert.ErrorIs(t, repo.StoreToken(ctx, "token-a"), models.ErrTokenAlreadyBanned)

	banned, err = repo.IsTokenBanned(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestTokenRevocationRepository_RetentionAndPurge(t *testing.T) {
	clock := &fakeClock{t: time.Now().UTC().Truncate(time.Microsecond)}
	repo := NewTokenRevocationRepository(newTestDB(t), 10*time.Minute)
	repo.now = clock.Now
	ctx := context.Background()

	require.NoError(t, repo.StoreToken(ctx, "token-a"))
	clock.Advance(11 * time.Minute)

	banned, err := repo.IsTokenBanned(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, banned)

	// a lapsed row is replaced, not reported as a duplicate
	require.NoError(t, repo.StoreToken(ctx, "token-a"))
	require.NoError(t, repo.StoreToken(ctx, "token-b"))
	clock.Advance(11 * time.Minute)

	purged, err := repo.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
}
