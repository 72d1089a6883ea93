package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasetoService_KeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("too-short"))
	require.Error(t, err)

	_, err = NewPasetoService(append(testSessionKey, 'x'))
	require.Error(t, err)

	_, err = NewPasetoService(testSessionKey)
	require.NoError(t, err)
}

func TestPasetoService_RoundTrip(t *testing.T) {
	svc, err := NewPasetoService(testSessionKey)
	require.NoError(t, err)

	accountID := uuid.New()
	token, err := svc.CreateToken(accountID, "ana@x.com", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), claims.AccountID)
	assert.Equal(t, "ana@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
}

func TestPasetoService_ExpiredToken(t *testing.T) {
	svc, err := NewPasetoService(testSessionKey)
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "ana@x.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasetoService_WrongKey(t *testing.T) {
	svc, err := NewPasetoService(testSessionKey)
	require.NoError(t, err)

	other, err := NewPasetoService([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "ana@x.com", time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasetoService_GarbageToken(t *testing.T) {
	svc, err := NewPasetoService(testSessionKey)
	require.NoError(t, err)

	for _, tok := range []string{"", "garbage", "v4.local.not-a-token"} {
		_, err := svc.VerifyToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
