package auth

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds the latency floor applied to failed logins
type TimingConfig struct {
	BaseDelayMs   int // Minimum total duration of a failed attempt
	RandomDelayMs int // Random jitter added on top of the base
}

// TimingDelay pads failed authentication attempts up to a floor so that the
// "unknown email" and "wrong password" paths take about the same time
type TimingDelay struct {
	config TimingConfig
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{config: config}
}

// Enabled reports whether any delay is configured
func (td *TimingDelay) Enabled() bool {
	return td != nil && (td.config.BaseDelayMs > 0 || td.config.RandomDelayMs > 0)
}

// WaitFrom sleeps until at least base+jitter has elapsed since start, or ctx is done
func (td *TimingDelay) WaitFrom(ctx context.Context, start time.Time) {
	if !td.Enabled() {
		return
	}

	target := time.Duration(td.config.BaseDelayMs) * time.Millisecond
	if td.config.RandomDelayMs > 0 {
		target += time.Duration(cryptoRandIntn(td.config.RandomDelayMs)) * time.Millisecond
	}

	remaining := target - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// cryptoRandIntn returns a random number in [0, max), or 0 if the entropy source fails
func cryptoRandIntn(max int) int {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint64(b[:]) % uint64(max))
}
