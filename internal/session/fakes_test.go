package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spec-kit/support-console/internal/authapi"
	"github.com/spec-kit/support-console/internal/domain"
)

// fakeAuth implements TokenAPI and AuthAPI in memory.
type fakeAuth struct {
	mu           sync.Mutex
	refreshCalls atomic.Int32
	loginCalls   []authapi.Credentials
	logoutAll    []string
	logoutOne    []string

	refreshGate chan struct{}
	refreshErr  error
	loginErr    error
	logoutErr   error
	loginResult *authapi.LoginResult
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string) (*authapi.TokenPair, error) {
	n := f.refreshCalls.Add(1)
	if f.refreshGate != nil {
		<-f.refreshGate
	}
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &authapi.TokenPair{
		AccessToken:  fmt.Sprintf("access-%d", n+1),
		RefreshToken: fmt.Sprintf("refresh-%d(%s)", n+1, refreshToken),
	}, nil
}

func (f *fakeAuth) Login(_ context.Context, creds authapi.Credentials) (*authapi.LoginResult, error) {
	f.mu.Lock()
	f.loginCalls = append(f.loginCalls, creds)
	f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.loginResult != nil {
		return f.loginResult, nil
	}
	return &authapi.LoginResult{
		TokenPair: authapi.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"},
		User:      domain.User{ID: "u-1", Email: creds.Identifier(), Role: domain.RoleAgent},
	}, nil
}

func (f *fakeAuth) LogoutAll(_ context.Context, accessToken string) error {
	f.mu.Lock()
	f.logoutAll = append(f.logoutAll, accessToken)
	f.mu.Unlock()
	return f.logoutErr
}

func (f *fakeAuth) LogoutOne(_ context.Context, _ string, jti string) error {
	f.mu.Lock()
	f.logoutOne = append(f.logoutOne, jti)
	f.mu.Unlock()
	return f.logoutErr
}
