package authapi

import (
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

// SessionID reads the jti claim from a refresh token WITHOUT verifying its
// signature. The result is for display and for naming the session in a
// logout-one call only. Never base an access decision on it.
func SessionID(refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errors.New("empty token")
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(refreshToken, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}

	for _, key := range []string{"jti", "sid", "session_id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", errors.New("token has no session id claim")
}
