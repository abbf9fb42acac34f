package models

import "github.com/google/uuid"

// LoginAttemptID identifies one pending second-factor challenge
type LoginAttemptID struct {
	value string
}

// NewLoginAttemptID returns a random (v4) id
func NewLoginAttemptID() LoginAttemptID {
	return LoginAttemptID{value: uuid.New().String()}
}

// ParseLoginAttemptID accepts any syntactically valid UUID and keeps its canonical form
func ParseLoginAttemptID(raw string) (LoginAttemptID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return LoginAttemptID{}, ErrInvalidLoginAttemptID
	}
	return LoginAttemptID{value: id.String()}, nil
}

func (id LoginAttemptID) String() string {
	return id.value
}
