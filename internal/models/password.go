package models

import "log/slog"

// MinPasswordLen is the shortest raw password ParsePassword accepts
const MinPasswordLen = 8

// Password is a raw password that passed the length check.
// It only lives for the duration of a signup or login request.
type Password struct {
	value string
}

func ParsePassword(raw string) (Password, error) {
	if len(raw) < MinPasswordLen {
		return Password{}, ErrInvalidPassword
	}
	return Password{value: raw}, nil
}

// String returns the raw value for hashing
func (p Password) String() string {
	return p.value
}

// LogValue keeps the raw value out of structured logs
func (p Password) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}
