package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RoundTrip(t *testing.T) {
	auth, err := NewAuthService("0123456789abcdef0123456789abcdef", "", time.Hour)
	require.NoError(t, err)

	token, expires, err := auth.GenerateToken("user-42")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, "user-42", claims.Subject)
}

func TestAuthService_RejectsForeignKey(t *testing.T) {
	a, err := NewAuthService("0123456789abcdef0123456789abcdef", "", time.Hour)
	require.NoError(t, err)
	b, err := NewAuthService("fedcba9876543210fedcba9876543210", "", time.Hour)
	require.NoError(t, err)

	token, _, err := a.GenerateToken("user-1")
	require.NoError(t, err)
	_, err = b.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthService_RejectsExpired(t *testing.T) {
	auth, err := NewAuthService("0123456789abcdef0123456789abcdef", "", time.Nanosecond)
	require.NoError(t, err)
	token, _, err := auth.GenerateToken("user-1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = auth.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthService_EmptyUser(t *testing.T) {
	auth, err := NewAuthService("0123456789abcdef0123456789abcdef", "", time.Hour)
	require.NoError(t, err)
	_, _, err = auth.GenerateToken("  ")
	assert.Error(t, err)
}

func TestAuthService_PersistsGeneratedSecret(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "keys", "secret")

	first, err := NewAuthService("", keyFile, time.Hour)
	require.NoError(t, err)
	token, _, err := first.GenerateToken("user-7")
	require.NoError(t, err)

	data, err := os.ReadFile(keyFile)
	require.NoError(t, err)
	assert.Len(t, string(data), 64)

	second, err := NewAuthService("", keyFile, time.Hour)
	require.NoError(t, err)
	_, err = second.ValidateToken(token)
	assert.NoError(t, err, "a reloaded key validates earlier tokens")
}
