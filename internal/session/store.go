// Package session owns the client-side authentication session: where tokens
// are persisted, how changes are announced, how refreshes are coordinated and
// the application-wide view of who is logged in.
package session

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/domain"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "support.auth."

const (
	keyAccess  = "access_token"
	keyRefresh = "refresh_token"
	keyUser    = "user"
)

// Snapshot is the persisted session as read at one moment.
type Snapshot struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

// Authenticated reports whether the snapshot holds a complete session.
// A partial session (one token without the other, or no user) is not one.
func (s Snapshot) Authenticated() bool {
	return s.AccessToken != "" && s.RefreshToken != "" && s.User != nil
}

// Store reads and writes the three session values. Reads never fail: a
// missing backend, a backend error or corrupt data all read as absent.
type Store struct {
	backend Backend
	prefix  string
	origin  string
	bus     *Bus
	logger  *zap.Logger
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) StoreOption {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger used for swallowed backend errors.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store over backend. A nil backend is valid and behaves
// like an environment without storage: reads are empty, writes are dropped.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		prefix:  DefaultPrefix,
		origin:  uuid.NewString(),
		bus:     NewBus(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prefix returns the key prefix.
func (s *Store) Prefix() string { return s.prefix }

// Origin returns the id this store stamps on its cross-process broadcasts.
func (s *Store) Origin() string { return s.origin }

// Changes returns the in-process change bus.
func (s *Store) Changes() *Bus { return s.bus }

// Set persists a full session and announces the change.
func (s *Store) Set(ctx context.Context, access, refresh string, user *domain.User) error {
	defer s.changed(ctx)
	if s.backend == nil {
		return nil
	}

	if err := s.backend.Set(ctx, s.key(keyAccess), access); err != nil {
		return err
	}
	if err := s.backend.Set(ctx, s.key(keyRefresh), refresh); err != nil {
		return err
	}
	if user == nil {
		return s.backend.Delete(ctx, s.key(keyUser))
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, s.key(keyUser), string(raw))
}

// SetTokens replaces only the token pair, as after a refresh rotation.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	defer s.changed(ctx)
	if s.backend == nil {
		return nil
	}

	if err := s.backend.Set(ctx, s.key(keyAccess), access); err != nil {
		return err
	}
	return s.backend.Set(ctx, s.key(keyRefresh), refresh)
}

// Clear removes the session and announces the change.
func (s *Store) Clear(ctx context.Context) error {
	defer s.changed(ctx)
	if s.backend == nil {
		return nil
	}
	return s.backend.Delete(ctx, s.key(keyAccess), s.key(keyRefresh), s.key(keyUser))
}

// Access returns the stored access token or "".
func (s *Store) Access(ctx context.Context) string {
	return s.get(ctx, keyAccess)
}

// RefreshToken returns the stored refresh token or "".
func (s *Store) RefreshToken(ctx context.Context) string {
	return s.get(ctx, keyRefresh)
}

// User returns the stored profile, or nil when absent or unreadable.
func (s *Store) User(ctx context.Context) *domain.User {
	raw := s.get(ctx, keyUser)
	if raw == "" {
		return nil
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("discarding malformed stored user", zap.String("key", s.key(keyUser)), zap.Error(err))
		return nil
	}
	return &user
}

// Snapshot reads all three values.
func (s *Store) Snapshot(ctx context.Context) Snapshot {
	return Snapshot{
		AccessToken:  s.Access(ctx),
		RefreshToken: s.RefreshToken(ctx),
		User:         s.User(ctx),
	}
}

// Watch subscribes onChange to changes made through other stores sharing the
// backend. It is a no-op for backends without a cross-process channel.
func (s *Store) Watch(ctx context.Context, onChange func()) (stop func(), err error) {
	w, ok := s.backend.(Watcher)
	if !ok {
		return func() {}, nil
	}
	return w.Watch(ctx, s.prefix, s.origin, onChange)
}

func (s *Store) get(ctx context.Context, name string) string {
	if s.backend == nil {
		return ""
	}
	val, ok, err := s.backend.Get(ctx, s.key(name))
	if err != nil {
		s.logger.Warn("session read failed", zap.String("key", s.key(name)), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return val
}

// changed fires the in-process signal once and broadcasts across processes.
// It runs even when a write failed part way, since some keys may have changed.
func (s *Store) changed(ctx context.Context) {
	s.bus.Publish()
	if w, ok := s.backend.(Watcher); ok {
		if err := w.Broadcast(ctx, s.prefix, s.origin); err != nil {
			s.logger.Warn("session change broadcast failed", zap.Error(err))
		}
	}
}

func (s *Store) key(name string) string {
	return s.prefix + name
}
