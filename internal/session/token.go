package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	dErrors "fidelis/pkg/domain-errors"
)

// Claims are the session token claims issued by the auth provider. The
// service only consumes tokens; it never issues them.
type Claims struct {
	SessionID string `json:"session_id"`
	Actor     string `json:"actor"`
	jwt.RegisteredClaims
}

// TokenValidator verifies HS256 session tokens.
type TokenValidator struct {
	signingKey []byte
}

func NewTokenValidator(signingKey string) *TokenValidator {
	return &TokenValidator{signingKey: []byte(signingKey)}
}

// Parse verifies the signature and expiry and returns the claims.
func (v *TokenValidator) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid session token")
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	return claims, nil
}
