package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

const (
	algorithmID = "argon2id"

	// Defaults match the parameters the service has always hashed with
	DefaultMemoryKB    uint32 = 15000
	DefaultTime        uint32 = 2
	DefaultParallelism uint8  = 1
	DefaultSaltLength  uint32 = 16
	DefaultKeyLength   uint32 = 32

	dummyPassword = "dummy-password-for-timing-parity"
)

// ErrMalformedHash is returned when a stored hash cannot be parsed.
// It is distinct from a password mismatch, which is reported as (false, nil).
var ErrMalformedHash = errors.New("malformed password hash")

// HasherConfig holds Argon2id cost parameters and the worker pool size
type HasherConfig struct {
	MemoryKB    uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	Workers     int
}

// DefaultHasherConfig returns production parameters with one worker per CPU
func DefaultHasherConfig() HasherConfig {
	return HasherConfig{
		MemoryKB:    DefaultMemoryKB,
		Time:        DefaultTime,
		Parallelism: DefaultParallelism,
		SaltLength:  DefaultSaltLength,
		KeyLength:   DefaultKeyLength,
		Workers:     runtime.GOMAXPROCS(0),
	}
}

// Hasher hashes and verifies passwords with Argon2id.
// Work is bounded by a semaphore so at most Workers hashes run at once;
// callers block until their job completes or their context is done.
type Hasher struct {
	config  HasherConfig
	sem     *semaphore.Weighted
	observe func(op string, d time.Duration)

	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

// NewHasher validates cfg and creates a Hasher
func NewHasher(cfg HasherConfig) (*Hasher, error) {
	if cfg.MemoryKB == 0 || cfg.Time == 0 || cfg.Parallelism == 0 {
		return nil, fmt.Errorf("argon2 memory, time and parallelism must be positive")
	}
	if cfg.SaltLength < 8 || cfg.KeyLength < 16 {
		return nil, fmt.Errorf("argon2 salt must be >= 8 bytes and key >= 16 bytes")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	return &Hasher{
		config: cfg,
		sem:    semaphore.NewWeighted(int64(cfg.Workers)),
	}, nil
}

// SetObserver installs a callback receiving the duration of every hash and verify job
func (h *Hasher) SetObserver(fn func(op string, d time.Duration)) {
	h.observe = fn
}

// Hash returns a PHC formatted Argon2id hash with a fresh random salt
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	var encoded string
	var hashErr error
	err := h.run(ctx, "hash", func() {
		encoded, hashErr = h.hash(password)
	})
	if err != nil {
		return "", err
	}
	if hashErr != nil {
		return "", fmt.Errorf("failed to hash password: %w", hashErr)
	}
	return encoded, nil
}

// Verify reports whether password matches encodedHash
func (h *Hasher) Verify(ctx context.Context, encodedHash, password string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	var match bool
	err = h.run(ctx, "verify", func() {
		computed := argon2.IDKey([]byte(password), parsed.salt, parsed.time, parsed.memory, parsed.parallelism, parsed.keyLength)
		match = subtle.ConstantTimeCompare(computed, parsed.hash) == 1
	})
	if err != nil {
		return false, err
	}
	return match, nil
}

// VerifyDummy spends the same work as Verify against a fixed hash.
// Call it when there is no stored hash so "no such user" costs as much as "wrong password".
func (h *Hasher) VerifyDummy(ctx context.Context, password string) error {
	h.dummyOnce.Do(func() {
		h.dummyHash, h.dummyErr = h.hash(dummyPassword)
	})
	if h.dummyErr != nil {
		return fmt.Errorf("failed to prepare dummy hash: %w", h.dummyErr)
	}
	_, err := h.Verify(ctx, h.dummyHash, password)
	return err
}

func (h *Hasher) hash(password string) (string, error) {
	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, h.config.Time, h.config.MemoryKB, h.config.Parallelism, h.config.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.MemoryKB,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// run executes fn on the worker pool and waits for it
func (h *Hasher) run(ctx context.Context, op string, fn func()) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("hash worker unavailable: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer h.sem.Release(1)
		defer close(done)

		start := time.Now()
		fn()
		if h.observe != nil {
			h.observe(op, time.Since(start))
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hash job abandoned: %w", ctx.Err())
	}
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	keyLength   uint32
	salt        []byte
	hash        []byte
}

func parsePHC(encoded string) (*parsedPHC, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return nil, ErrMalformedHash
	}

	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("%w: unsupported version", ErrMalformedHash)
	}

	var p parsedPHC
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.parallelism); err != nil {
		return nil, fmt.Errorf("%w: bad parameters", ErrMalformedHash)
	}
	if p.memory == 0 || p.time == 0 || p.parallelism == 0 {
		return nil, fmt.Errorf("%w: bad parameters", ErrMalformedHash)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return nil, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.hash) == 0 {
		return nil, fmt.Errorf("%w: bad key", ErrMalformedHash)
	}
	p.keyLength = uint32(len(p.hash))

	return &p, nil
}
