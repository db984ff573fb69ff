package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseIdentity(t *testing.T) {
	svc := NewService("secret", 5)
	token, err := svc.GenerateToken(Identity{UserID: "u-1", Email: "ana@example.com", Name: "Ana", Role: RoleAdmin})
	require.NoError(t, err)

	id, err := svc.ParseIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u-1", Email: "ana@example.com", Name: "Ana", Role: RoleAdmin}, id)
}

func TestParseIdentityDefaults(t *testing.T) {
	svc := NewService("secret", 5)
	token, err := svc.GenerateToken(Identity{UserID: "u-2", Email: "bo@example.com"})
	require.NoError(t, err)

	id, err := svc.ParseIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, id.Role)
	assert.Equal(t, "bo", id.Name)

	token, err = svc.GenerateToken(Identity{UserID: "u-3"})
	require.NoError(t, err)
	id, err = svc.ParseIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "Guest", id.Name)
}

func TestParseTokenRejects(t *testing.T) {
	svc := NewService("secret", 5)

	_, err := svc.ParseToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewService("other-secret", 5).GenerateToken(Identity{UserID: "u-1"})
	require.NoError(t, err)
	_, err = svc.ParseToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: RoleAdmin})
	signed, err = anonymous.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
