package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestManager_AccessToken_Roundtrip(t *testing.T) {
	m := NewManager("secret", 15*time.Minute, 30*24*time.Hour)
	u := uuid.New()

	access, err := m.GenerateAccessToken(u)
	require.NoError(t, err)
	got, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestManager_RefreshToken_Roundtrip(t *testing.T) {
	m := NewManager("secret", 15*time.Minute, 30*24*time.Hour)
	u := uuid.New()

	refresh, err := m.GenerateRefreshToken(u)
	require.NoError(t, err)
	got, err := m.ParseRefreshToken(refresh)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestManager_TokenType_Mismatch(t *testing.T) {
	m := NewManager("secret", 15*time.Minute, 30*24*time.Hour)
	u := uuid.New()

	access, err := m.GenerateAccessToken(u)
	require.NoError(t, err)
	_, err = m.ParseRefreshToken(access)
	require.Error(t, err)

	refresh, err := m.GenerateRefreshToken(u)
	require.NoError(t, err)
	_, err = m.ParseAccessToken(refresh)
	require.Error(t, err)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager("secret", -time.Minute, 30*24*time.Hour)

	access, err := m.GenerateAccessToken(uuid.New())
	require.NoError(t, err)
	_, err = m.ParseAccessToken(access)
	require.Error(t, err)
}

func TestManager_WrongSecret(t *testing.T) {
	m := NewManager("secret", 15*time.Minute, 30*24*time.Hour)
	other := NewManager("other", 15*time.Minute, 30*24*time.Hour)

	access, err := m.GenerateAccessToken(uuid.New())
	require.NoError(t, err)
	_, err = other.ParseAccessToken(access)
	require.Error(t, err)
}
