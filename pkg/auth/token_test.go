package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roperito/roperito-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "roperito", ExpirationMinutes: 30}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: userID, Email: "ana@example.com", JTI: "jti-1"})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "jti-1", claims.ID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestMintAccessTokenGeneratesJTI(t *testing.T) {
	token, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testJWTConfig(), token)
	require.NoError(t, err)
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err)
}

func TestMintAccessTokenRequiresUser(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{})
	assert.Error(t, err)

	_, err = MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	assert.Error(t, err)
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	token, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWTConfig(), token+"x")
	assert.Error(t, err)

	other := testJWTConfig()
	other.Secret = "different"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}

func TestParseAccessTokenWrongIssuer(t *testing.T) {
	token, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	other := testJWTConfig()
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: userID, JTI: "old"})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "old", claims.ID)
}
