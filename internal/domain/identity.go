// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const MaxUsernameLen = 64

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
)

type (
	// Username is the broadcaster handle a client asks to watch ("uniqueId").
	Username string
	// RoomID identifies the live room the upstream service resolved for a Username.
	RoomID string
)

// NewUsername normalizes and validates a raw handle from the client.
// A leading "@" is accepted and stripped.
func NewUsername(raw string) (Username, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "@")
	if len(raw) == 0 {
		return "", ErrUsernameEmpty
	}
	if len(raw) > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return Username(raw), nil
}
