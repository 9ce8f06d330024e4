package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"darsly/internal/models"
)

var testSecret = []byte("unit-test-secret")

func TestAccessToken(t *testing.T) {
	userID := primitive.NewObjectID()

	token, err := GenerateAccessToken(testSecret, userID, models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token, TokenPurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.ID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	t.Run("rejected with the wrong secret", func(t *testing.T) {
		_, err := ParseToken([]byte("other"), token, TokenPurposeAccess)
		assert.Error(t, err)
	})

	t.Run("rejected as a temp token", func(t *testing.T) {
		_, err := ParseToken(testSecret, token, TokenPurposeTwoFactor)
		assert.Error(t, err)
	})
}

func TestTempToken(t *testing.T) {
	userID := primitive.NewObjectID()

	token, jti, err := GenerateTempToken(testSecret, userID, 5*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := ParseToken(testSecret, token, TokenPurposeTwoFactor)
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.ID)
	assert.Equal(t, jti, claims.RegisteredClaims.ID)
	assert.Empty(t, claims.Role)

	// A temp token never passes as an access token, so it cannot reach
	// protected endpoints.
	_, err = ParseToken(testSecret, token, TokenPurposeAccess)
	assert.Error(t, err)

	t.Run("expired", func(t *testing.T) {
		token, _, err := GenerateTempToken(testSecret, userID, -time.Minute)
		require.NoError(t, err)

		_, err = ParseToken(testSecret, token, TokenPurposeTwoFactor)
		assert.Error(t, err)
	})

	t.Run("jti is unique per issue", func(t *testing.T) {
		_, first, err := GenerateTempToken(testSecret, userID, time.Minute)
		require.NoError(t, err)
		_, second, err := GenerateTempToken(testSecret, userID, time.Minute)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}
