package auth

import (
	"testing"
	"time"

	"copyforge/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{AccessSecret: "secret", AccessExpiry: time.Hour, Issuer: "copyforge"}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 42, "a@example.com", "USER")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "USER", claims.Role)
}

func TestParseAccessTokenRejects(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 1, "a@example.com", "USER")
	require.NoError(t, err)

	other := *cfg
	other.AccessSecret = "different"
	_, err = ParseAccessToken(&other, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := *cfg
	expired.AccessExpiry = -time.Minute
	old, err := GenerateAccessToken(&expired, 1, "a@example.com", "USER")
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken(cfg, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
