package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stream-user-service/internal/model"
)

var testUser = model.User{
	ID:       42,
	Username: "chai",
	Email:    "chai@example.com",
	FullName: "Chai Aur Code",
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("access-secret", testUser, 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	claims, err := VerifyAccessToken("access-secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "chai", claims.Username)
	assert.Equal(t, "chai@example.com", claims.Email)
	assert.Equal(t, "Chai Aur Code", claims.FullName)
}

func TestAccessTokenWrongSecretRejected(t *testing.T) {
	tok, err := NewAccessToken("access-secret", testUser, 15)
	require.NoError(t, err)

	_, err = VerifyAccessToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpiredRejected(t *testing.T) {
	tok, err := NewAccessToken("access-secret", testUser, -1)
	require.NoError(t, err)

	_, err = VerifyAccessToken("access-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tok, err := NewRefreshToken("refresh-secret", 42, 7)
	require.NoError(t, err)

	uid, err := VerifyRefreshToken("refresh-secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
}

func TestRefreshTokenNotValidAsAccessToken(t *testing.T) {
	// The two token classes use distinct secrets; one must never verify
	// under the other's secret.
	refresh, err := NewRefreshToken("refresh-secret", 42, 7)
	require.NoError(t, err)

	_, err = VerifyAccessToken("access-secret", refresh.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	a, err := NewRefreshToken("refresh-secret", 42, 7)
	require.NoError(t, err)
	b, err := NewRefreshToken("refresh-secret", 42, 7)
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
}

func TestVerifyRefreshTokenGarbageRejected(t *testing.T) {
	_, err := VerifyRefreshToken("refresh-secret", "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
