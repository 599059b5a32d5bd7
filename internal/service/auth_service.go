package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/auth"
	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/events"
	"github.com/spec-kit/support-console/internal/repository"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrSessionNotFound     = errors.New("session not found")
)

// IssuedTokens is the pair handed out on login and refresh.
type IssuedTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	SessionID        string
}

// AuthService coordinates login, rotation and revocation.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokenMgr *auth.TokenManager
	events   events.Dispatcher
	logger   *zap.Logger
	now      func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Events      events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Events
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &AuthService{
		users:    deps.UserRepo,
		sessions: deps.SessionRepo,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL()),
		events:   dispatcher,
		logger:   logger,
		now:      time.Now,
	}
}

// TokenManager exposes the signer, mainly for tests.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login checks credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *IssuedTokens, error) {
	acc, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		_ = auth.ComparePassword("", password)
		s.publish(ctx, events.Event{Type: events.EventLoginFailed})
		return nil, nil, ErrInvalidCredentials
	}
	if err := auth.ComparePassword(acc.PasswordHash, password); err != nil {
		s.publish(ctx, events.Event{Type: events.EventLoginFailed, UserID: acc.User.ID})
		return nil, nil, ErrInvalidCredentials
	}

	sess := s.newSession(acc.User.ID)
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	tokens, err := s.issue(acc.User, sess)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{Type: events.EventSessionCreated, UserID: acc.User.ID, SessionID: sess.ID})
	user := acc.User
	return &user, tokens, nil
}

// Refresh rotates the session named by refreshToken. A refresh token is
// accepted at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*IssuedTokens, error) {
	claims, err := s.tokenMgr.ParseToken(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	next := s.newSession(user.ID)
	if err := s.sessions.Rotate(ctx, claims.ID, next); err != nil {
		if errors.Is(err, repository.ErrSessionInactive) || errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("refresh token rejected", zap.String("session_id", claims.ID), zap.Error(err))
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	tokens, err := s.issue(*user, next)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:      events.EventSessionRotated,
		UserID:    user.ID,
		SessionID: next.ID,
		Payload:   events.SessionRotatedPayload{PreviousID: claims.ID},
	})
	return tokens, nil
}

// Authenticate resolves an access token to its principal. Tokens of revoked
// or expired sessions are rejected even if the JWT itself is still valid.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.Principal, error) {
	claims, err := s.tokenMgr.ParseToken(accessToken, auth.TokenAccess)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}
	sess, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil || !sess.Active(s.now()) {
		return nil, ErrInvalidAccessToken
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}
	return &auth.Principal{User: user, SessionID: claims.SessionID, TokenID: claims.ID}, nil
}

// LogoutAll revokes every session of userID.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int, error) {
	revoked, err := s.sessions.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, id := range revoked {
		s.publish(ctx, events.Event{
			Type:      events.EventSessionRevoked,
			UserID:    userID,
			SessionID: id,
			Payload:   events.SessionRevokedPayload{Reason: "logout_all"},
		})
	}
	return len(revoked), nil
}

// LogoutOne revokes one of userID's sessions. Sessions of other users are
// reported as not found.
func (s *AuthService) LogoutOne(ctx context.Context, userID, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil || sess.UserID != userID {
		return ErrSessionNotFound
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:      events.EventSessionRevoked,
		UserID:    userID,
		SessionID: sessionID,
		Payload:   events.SessionRevokedPayload{Reason: "logout_one"},
	})
	return nil
}

func (s *AuthService) newSession(userID string) repository.Session {
	now := s.now()
	return repository.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenMgr.RefreshTTL()),
	}
}

func (s *AuthService) issue(user domain.User, sess repository.Session) (*IssuedTokens, error) {
	access, accessExp, err := s.tokenMgr.GenerateAccessToken(user, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := s.tokenMgr.GenerateRefreshToken(user.ID, sess.ID, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &IssuedTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		SessionID:        sess.ID,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, e events.Event) {
	e.Timestamp = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(e.Type)), zap.Error(err))
	}
}
