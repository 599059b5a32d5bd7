package dto

import (
	"time"

	"github.com/spec-kit/support-console/internal/domain"
)

// LoginRequest payload for login. Username is accepted as an alias for
// clients that send the identifier under that name.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest payload for token rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutOneRequest names the session to revoke.
type LogoutOneRequest struct {
	JTI string `json:"jti"`
}

// TokenResponse is returned by refresh.
type TokenResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// LoginResponse is returned by login.
type LoginResponse struct {
	TokenResponse
	User domain.User `json:"user"`
}

// LogoutResponse reports how many sessions ended.
type LogoutResponse struct {
	Revoked int `json:"revoked"`
}
