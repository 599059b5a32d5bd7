// Package authapi performs the backend's authentication calls: login, token
// refresh and logout. It holds no state and never retries.
package authapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/httpclient"
)

const (
	pathLogin     = "/api/v1/auth/login"
	pathRefresh   = "/api/v1/auth/refresh"
	pathLogoutAll = "/api/v1/auth/logout-all"
	pathLogoutOne = "/api/v1/auth/logout-one"
)

// ErrMissingRefreshToken is returned by Refresh when there is nothing to exchange.
var ErrMissingRefreshToken = &httpclient.HTTPError{Status: http.StatusUnauthorized, Message: "missing refresh token"}

// Credentials identify a user at login. Username is accepted as an alias for
// Email; Email wins when both are set.
type Credentials struct {
	Email    string
	Username string
	Password string
}

// Identifier returns the trimmed login identifier.
func (c Credentials) Identifier() string {
	if id := strings.TrimSpace(c.Email); id != "" {
		return id
	}
	return strings.TrimSpace(c.Username)
}

// TokenPair is an access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Complete reports whether both tokens are present.
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// LoginResult is the login response.
type LoginResult struct {
	TokenPair
	User domain.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutOneRequest struct {
	JTI string `json:"jti"`
}

// Client calls the auth endpoints.
type Client struct {
	http *httpclient.Client
}

// New wraps an httpclient.Client.
func New(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	body := loginRequest{Email: creds.Identifier(), Password: creds.Password}

	var out LoginResult
	if err := c.http.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: pathLogin, Body: body}, &out); err != nil {
		return nil, err
	}
	if !out.Complete() {
		return nil, &httpclient.HTTPError{Status: http.StatusBadGateway, Message: "login response missing tokens"}
	}
	return &out, nil
}

// Refresh exchanges refreshToken for a new pair. The old refresh token is
// invalidated by the backend.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	var out TokenPair
	req := httpclient.Request{Method: http.MethodPost, Path: pathRefresh, Body: refreshRequest{RefreshToken: refreshToken}}
	if err := c.http.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	if !out.Complete() {
		return nil, &httpclient.HTTPError{Status: http.StatusBadGateway, Message: "refresh response missing tokens"}
	}
	return &out, nil
}

// LogoutAll revokes every session of the current user.
func (c *Client) LogoutAll(ctx context.Context, accessToken string) error {
	return c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   pathLogoutAll,
		Header: bearer(accessToken),
	}, nil)
}

// LogoutOne revokes the session identified by jti.
func (c *Client) LogoutOne(ctx context.Context, accessToken, jti string) error {
	if jti == "" {
		return errors.New("logout one: empty session id")
	}
	return c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   pathLogoutOne,
		Body:   logoutOneRequest{JTI: jti},
		Header: bearer(accessToken),
	}, nil)
}

func bearer(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
