package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/support-console/internal/domain"
)

// TokenType distinguishes access from refresh tokens signed with one key.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// Claims describes JWT payload. Access tokens carry the session in sid;
// refresh tokens use the session id as their jti.
type Claims struct {
	Email     string      `json:"email,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	SessionID string      `json:"sid,omitempty"`
	Type      TokenType   `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshTTL is the lifetime given to new sessions.
func (tm *TokenManager) RefreshTTL() time.Duration { return tm.refreshTTL }

// GenerateAccessToken signs a short-lived token for user bound to sessionID.
func (tm *TokenManager) GenerateAccessToken(user domain.User, sessionID string) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.accessTTL)
	claims := &Claims{
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
		Type:      TokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return tm.sign(claims, expiresAt)
}

// GenerateRefreshToken signs the refresh token for a session.
func (tm *TokenManager) GenerateRefreshToken(userID, sessionID string, expiresAt time.Time) (string, time.Time, error) {
	claims := &Claims{
		Type: TokenRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(tm.now()),
		},
	}
	return tm.sign(claims, expiresAt)
}

func (tm *TokenManager) sign(claims *Claims, expiresAt time.Time) (string, time.Time, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates a token and checks it is of the wanted type.
func (tm *TokenManager) ParseToken(tokenStr string, want TokenType) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
