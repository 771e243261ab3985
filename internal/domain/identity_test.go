package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUsername(t *testing.T) {
	u, err := NewUsername("alice")
	require.NoError(t, err)
	require.Equal(t, Username("alice"), u)
}

func TestNewUsernameStripsAtAndSpace(t *testing.T) {
	u, err := NewUsername("  @alice ")
	require.NoError(t, err)
	require.Equal(t, Username("alice"), u)
}

func TestNewUsernameEmpty(t *testing.T) {
	_, err := NewUsername("   ")
	require.ErrorIs(t, err, ErrUsernameEmpty)

	_, err = NewUsername("@")
	require.ErrorIs(t, err, ErrUsernameEmpty)
}

func TestNewUsernameTooLong(t *testing.T) {
	_, err := NewUsername(strings.Repeat("a", MaxUsernameLen+1))
	require.ErrorIs(t, err, ErrUsernameTooLong)
}
