package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "discrescue/pkg/domain-errors"
)

func TestValidateToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "discrescue", "discrescue")

	t.Run("round trips claims", func(t *testing.T) {
		userID := uuid.New()
		sessionID := uuid.New()
		token, err := svc.GenerateAccessToken(userID, sessionID, time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, sessionID.String(), claims.SessionID)
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		other := NewJWTService("different-key", "discrescue", "discrescue")
		token, err := other.GenerateAccessToken(uuid.New(), uuid.New(), time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects expired token", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(uuid.New(), uuid.New(), -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects wrong audience", func(t *testing.T) {
		other := NewJWTService("test-signing-key", "discrescue", "someone-else")
		token, err := other.GenerateAccessToken(uuid.New(), uuid.New(), time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.jwt")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
