package models

import (
	"time"
)

// User is the stored form of an account. PasswordHash is always an Argon2id PHC string.
type User struct {
	Email        Email
	PasswordHash string
	Requires2FA  bool
	CreatedAt    time.Time
}

// NewUser carries the raw signup input to a UserStore, which hashes the password
type NewUser struct {
	Email       Email
	Password    Password
	Requires2FA bool
}
