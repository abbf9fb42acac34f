package models

import "strings"

// Email is a well-formed address. It is the identity key for every per-user record.
type Email struct {
	value string
}

// ParseEmail accepts any non-empty string containing an "@"
func ParseEmail(raw string) (Email, error) {
	if raw == "" || !strings.Contains(raw, "@") {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: raw}, nil
}

func (e Email) String() string {
	return e.value
}

// IsZero reports whether e was never parsed
func (e Email) IsZero() bool {
	return e.value == ""
}
