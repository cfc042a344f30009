package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars!!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "pos-test",
		MaxRefreshCount:        3,
	})
}

func TestGenerateTokenPair(t *testing.T) {
	service := newTestJWTService()
	userID := uuid.New()

	pair, err := service.GenerateTokenPair(GenerateTokenInput{
		UserID:   userID,
		Username: "cashier1",
		Role:     "cashier",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))
}

func TestValidateAccessToken(t *testing.T) {
	service := newTestJWTService()
	userID := uuid.New()

	pair, err := service.GenerateTokenPair(GenerateTokenInput{
		UserID:   userID,
		Username: "cashier1",
		Role:     "cashier",
	})
	require.NoError(t, err)

	t.Run("accepts a valid access token", func(t *testing.T) {
		claims, err := service.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "cashier1", claims.Username)
		assert.Equal(t, "cashier", claims.Role)
		assert.Equal(t, TokenTypeAccess, claims.TokenType)

		parsed, err := claims.GetUserUUID()
		require.NoError(t, err)
		assert.Equal(t, userID, parsed)
	})

	t.Run("rejects a refresh token used as access token", func(t *testing.T) {
		_, err := service.ValidateAccessToken(pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                 "another-secret-key-at-least-32-chars",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "pos-test",
			MaxRefreshCount:        3,
		})
		otherPair, err := other.GenerateTokenPair(GenerateTokenInput{
			UserID:   userID,
			Username: "cashier1",
			Role:     "cashier",
		})
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(otherPair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRefreshTokenPair(t *testing.T) {
	service := newTestJWTService()
	userID := uuid.New()

	pair, err := service.GenerateTokenPair(GenerateTokenInput{
		UserID:   userID,
		Username: "cashier1",
		Role:     "cashier",
	})
	require.NoError(t, err)

	t.Run("issues a new pair and carries role changes", func(t *testing.T) {
		refreshed, err := service.RefreshTokenPair(pair.RefreshToken, "cashier1", "admin")
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(refreshed.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)

		refreshClaims, err := service.ValidateRefreshToken(refreshed.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, 1, refreshClaims.RefreshCount)
	})

	t.Run("enforces the refresh count limit", func(t *testing.T) {
		token := pair.RefreshToken
		for i := 0; i < 3; i++ {
			refreshed, err := service.RefreshTokenPair(token, "cashier1", "cashier")
			require.NoError(t, err)
			token = refreshed.RefreshToken
		}

		_, err := service.RefreshTokenPair(token, "cashier1", "cashier")
		assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
	})

	t.Run("rejects an access token used for refresh", func(t *testing.T) {
		_, err := service.RefreshTokenPair(pair.AccessToken, "cashier1", "cashier")
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})
}

func TestClaimsTTL(t *testing.T) {
	service := newTestJWTService()

	pair, err := service.GenerateTokenPair(GenerateTokenInput{
		UserID:   uuid.New(),
		Username: "cashier1",
		Role:     "cashier",
	})
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	ttl := claims.GetRemainingTTL()
	assert.Greater(t, ttl, 14*time.Minute)
	assert.LessOrEqual(t, ttl, 15*time.Minute)
	assert.False(t, claims.GetIssuedAtTime().IsZero())
	assert.False(t, claims.GetExpiresAtTime().IsZero())
}
