package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", 24, 7)

	access, err := m.GenerateToken(42, "a@b.com", "alice", "USER")
	require.NoError(t, err)

	claims, err := m.VerifyToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.InDelta(t, (24 * time.Hour).Seconds(), claims.TTL(time.Now()).Seconds(), 5)

	_, err = m.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrWrongPurpose)

	refresh, err := m.GenerateRefreshToken(42, "a@b.com", "alice", "USER")
	require.NoError(t, err)
	_, err = m.VerifyToken(refresh)
	assert.ErrorIs(t, err, ErrWrongPurpose)
	_, err = m.VerifyRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", 1, 1)
	other := NewJWTManager("other", 1, 1)

	tok, err := other.GenerateToken(1, "x@y.z", "x", "USER")
	require.NoError(t, err)
	_, err = m.VerifyToken(tok)
	assert.Error(t, err)

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := m.GenerateToken(1, "x@y.z", "x", "USER")
	require.NoError(t, err)
	_, err = m.VerifyToken(expired)
	assert.Error(t, err)

	_, err = m.VerifyToken("not-a-token")
	assert.Error(t, err)
}
