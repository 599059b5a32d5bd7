package repository

import (
	"context"
	"sync"
	"time"
)

// Session is one login. Its id is the jti of the current refresh token; a
// rotation revokes it and creates the successor.
type Session struct {
	ID         string
	UserID     string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy string
}

// Active reports whether the session can still be used at now.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// SessionRepository defines access to issued sessions.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	// Rotate revokes prevID and stores next atomically. It fails with
	// ErrSessionInactive if prevID was already revoked or has expired.
	Rotate(ctx context.Context, prevID string, next Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) ([]string, error)
}

type sessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessionRepository returns an in-memory implementation.
func NewSessionRepository(now func() time.Time) SessionRepository {
	if now == nil {
		now = time.Now
	}
	return &sessionRepository{sessions: make(map[string]*Session), now: now}
}

func (r *sessionRepository) Create(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.ID]; exists {
		return ErrConflict
	}
	r.sessions[s.ID] = &s
	return nil
}

func (r *sessionRepository) GetByID(_ context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *sessionRepository) Rotate(_ context.Context, prevID string, next Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.sessions[prevID]
	if !ok {
		return ErrNotFound
	}
	now := r.now()
	if !prev.Active(now) {
		return ErrSessionInactive
	}
	if _, exists := r.sessions[next.ID]; exists {
		return ErrConflict
	}
	prev.RevokedAt = &now
	prev.ReplacedBy = next.ID
	r.sessions[next.ID] = &next
	return nil
}

func (r *sessionRepository) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if s.RevokedAt == nil {
		now := r.now()
		s.RevokedAt = &now
	}
	return nil
}

func (r *sessionRepository) RevokeAllForUser(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	var revoked []string
	for id, s := range r.sessions {
		if s.UserID != userID || s.RevokedAt != nil {
			continue
		}
		s.RevokedAt = &now
		revoked = append(revoked, id)
	}
	return revoked, nil
}
