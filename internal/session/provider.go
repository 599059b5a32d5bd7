package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/authapi"
	"github.com/spec-kit/support-console/internal/domain"
)

// ErrNoSessionID is returned by LogoutOne when no session id was given and
// none can be read from the current refresh token.
var ErrNoSessionID = errors.New("session: no session id available")

// State is the provider's view of the session at one moment.
type State struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	Loading      bool
	Refreshing   bool
	Error        string
}

// IsAuthenticated reports whether a complete session is loaded.
func (s State) IsAuthenticated() bool {
	return s.AccessToken != "" && s.RefreshToken != "" && s.User != nil
}

// AuthAPI is the subset of the auth transport the provider drives.
type AuthAPI interface {
	Login(ctx context.Context, creds authapi.Credentials) (*authapi.LoginResult, error)
	LogoutAll(ctx context.Context, accessToken string) error
	LogoutOne(ctx context.Context, accessToken, jti string) error
}

// Provider is the application-wide session: who is logged in, kept in step
// with the Store in this process and in every other process sharing the
// backend. Construct one at startup, call Start, and Close on shutdown.
type Provider struct {
	store     *Store
	api       AuthAPI
	refresher *Refresher
	logger    *zap.Logger

	mu        sync.Mutex
	state     State
	nextID    int
	listeners map[int]func(State)

	lifecycle sync.Mutex
	stops     []func()
	reloadCtx context.Context
}

// NewProvider builds a provider and seeds its state from the store
// synchronously, so a persisted login is visible before Start.
func NewProvider(store *Store, api AuthAPI, refresher *Refresher, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{
		store:     store,
		api:       api,
		refresher: refresher,
		logger:    logger,
		listeners: make(map[int]func(State)),
		reloadCtx: context.Background(),
	}
	snap := store.Snapshot(context.Background())
	p.state = State{User: snap.User, AccessToken: snap.AccessToken, RefreshToken: snap.RefreshToken}
	return p
}

// Start subscribes to in-process and cross-process change signals. Either
// signal triggers a full re-read of the store.
func (p *Provider) Start(ctx context.Context) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if len(p.stops) > 0 {
		return nil
	}

	p.reloadCtx = context.WithoutCancel(ctx)
	unsubscribe := p.store.Changes().Subscribe(p.reload)
	stopWatch, err := p.store.Watch(ctx, p.reload)
	if err != nil {
		unsubscribe()
		return fmt.Errorf("watch session store: %w", err)
	}
	p.stops = []func(){unsubscribe, stopWatch}

	// Catch up on anything written between construction and subscription.
	p.reloadWith(p.reloadCtx)
	return nil
}

// Close stops all subscriptions and resets the in-memory state. Persisted
// state is left untouched.
func (p *Provider) Close() {
	p.lifecycle.Lock()
	stops := p.stops
	p.stops = nil
	p.lifecycle.Unlock()

	for _, stop := range stops {
		stop()
	}

	p.mu.Lock()
	p.state = State{}
	p.listeners = make(map[int]func(State))
	p.mu.Unlock()
}

// State returns the current snapshot.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsAuthenticated is shorthand for State().IsAuthenticated().
func (p *Provider) IsAuthenticated() bool {
	return p.State().IsAuthenticated()
}

// Subscribe registers fn to receive every new state. fn runs on the goroutine
// that caused the change and must not block.
func (p *Provider) Subscribe(fn func(State)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Login authenticates and persists the new session. On failure the display
// message is recorded in State().Error and the transport error is returned
// unchanged so callers can inspect its status.
func (p *Provider) Login(ctx context.Context, creds authapi.Credentials) error {
	p.update(func(s *State) {
		s.Loading = true
		s.Error = ""
	})
	defer p.update(func(s *State) { s.Loading = false })

	res, err := p.api.Login(ctx, creds)
	if err != nil {
		msg := authapi.Message(err)
		p.update(func(s *State) { s.Error = msg })
		return err
	}

	user := res.User
	if err := p.store.Set(ctx, res.AccessToken, res.RefreshToken, &user); err != nil {
		p.update(func(s *State) { s.Error = "Unable to save session" })
		return fmt.Errorf("persist session: %w", err)
	}

	p.update(func(s *State) {
		s.User = &user
		s.AccessToken = res.AccessToken
		s.RefreshToken = res.RefreshToken
	})
	p.logger.Info("logged in", zap.String("user_id", user.ID))
	return nil
}

// Refresh rotates the tokens now, sharing the in-flight refresh with the
// gateway if one is running. A failed refresh clears the session.
func (p *Provider) Refresh(ctx context.Context) error {
	p.update(func(s *State) {
		s.Refreshing = true
		s.Error = ""
	})
	defer p.update(func(s *State) { s.Refreshing = false })

	err := p.refresher.Refresh(ctx, p.store.Access(ctx))
	p.reloadWith(ctx)
	if err != nil {
		msg := authapi.Message(err)
		p.update(func(s *State) { s.Error = msg })
		return err
	}
	return nil
}

// Logout revokes all sessions on the backend when possible and always clears
// the local session. Only a local storage failure is returned.
func (p *Provider) Logout(ctx context.Context) error {
	if access := p.store.Access(ctx); access != "" {
		if err := p.api.LogoutAll(ctx, access); err != nil {
			p.logger.Warn("logout-all failed; clearing local session anyway", zap.Error(err))
		}
	}
	return p.clearLocal(ctx)
}

// LogoutOne revokes one session. With an empty sessionID the current
// session's id is read from its refresh token. The local session is cleared
// only when the revoked id is the current session's id.
func (p *Provider) LogoutOne(ctx context.Context, sessionID string) error {
	current, err := authapi.SessionID(p.store.RefreshToken(ctx))
	if err != nil {
		current = ""
	}

	target := sessionID
	if target == "" {
		target = current
	}
	if target == "" {
		return ErrNoSessionID
	}

	if err := p.api.LogoutOne(ctx, p.store.Access(ctx), target); err != nil {
		p.logger.Warn("logout-one failed", zap.String("session_id", target), zap.Error(err))
	}

	if target != current {
		return nil
	}
	return p.clearLocal(ctx)
}

// CurrentSessionID returns the id decoded from the stored refresh token, for
// display only.
func (p *Provider) CurrentSessionID(ctx context.Context) (string, error) {
	return authapi.SessionID(p.store.RefreshToken(ctx))
}

func (p *Provider) clearLocal(ctx context.Context) error {
	err := p.store.Clear(ctx)
	p.update(func(s *State) { *s = State{} })
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.logger.Info("logged out")
	return nil
}

func (p *Provider) reload() {
	p.lifecycle.Lock()
	ctx := p.reloadCtx
	p.lifecycle.Unlock()
	p.reloadWith(ctx)
}

func (p *Provider) reloadWith(ctx context.Context) {
	snap := p.store.Snapshot(ctx)
	p.update(func(s *State) {
		s.User = snap.User
		s.AccessToken = snap.AccessToken
		s.RefreshToken = snap.RefreshToken
	})
}

func (p *Provider) update(fn func(*State)) {
	p.mu.Lock()
	fn(&p.state)
	snap := p.state
	listeners := make([]func(State), 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}
