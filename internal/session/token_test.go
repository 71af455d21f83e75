package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fidelis/pkg/domain-errors"
)

func TestTokenValidator_Parse(t *testing.T) {
	validator := NewTokenValidator(testSigningKey)

	t.Run("round trip", func(t *testing.T) {
		claims, err := validator.Parse(signToken(t, newSessionID(t), "clerk", time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "clerk", claims.Actor)
		assert.NotEmpty(t, claims.SessionID)
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			SessionID: newSessionID(t).String(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = validator.Parse(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("missing session claim rejected", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Actor: "clerk",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}).SignedString([]byte(testSigningKey))
		require.NoError(t, err)

		_, err = validator.Parse(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
