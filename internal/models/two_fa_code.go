package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	TwoFACodeLength = 6
	twoFACodeMin    = 100000
	twoFACodeMax    = 999999
)

// TwoFACode is a six digit one-time code
type TwoFACode struct {
	value string
}

// ParseTwoFACode accepts exactly six ASCII digits
func ParseTwoFACode(raw string) (TwoFACode, error) {
	if len(raw) != TwoFACodeLength {
		return TwoFACode{}, ErrInvalidTwoFACode
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return TwoFACode{}, ErrInvalidTwoFACode
		}
	}
	return TwoFACode{value: raw}, nil
}

// NewTwoFACode draws a code uniformly from 100000-999999
func NewTwoFACode() (TwoFACode, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(twoFACodeMax-twoFACodeMin+1))
	if err != nil {
		return TwoFACode{}, fmt.Errorf("failed to generate 2fa code: %w", err)
	}
	return TwoFACode{value: fmt.Sprintf("%d", n.Int64()+twoFACodeMin)}, nil
}

func (c TwoFACode) String() string {
	return c.value
}
