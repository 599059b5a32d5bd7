package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-console/internal/httpclient"
)

type recorded struct {
	path   string
	auth   string
	body   map[string]string
	header http.Header
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) add(rec recorded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, rec)
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.calls...)
}

func newServer(t *testing.T, status int, response string) (*Client, *recorder, *atomic.Int32) {
	t.Helper()
	calls := &recorder{}
	var count atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		rec := recorded{path: r.URL.Path, auth: r.Header.Get("Authorization"), header: r.Header.Clone()}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls.add(rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	hc, err := httpclient.New(httpclient.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return New(hc), calls, &count
}

func TestLoginNormalizesUsernameToEmail(t *testing.T) {
	c, calls, _ := newServer(t, http.StatusOK, `{"access_token":"a1","refresh_token":"r1","user":{"id":"u-1","email":"a@b.com","role":"AGENT","permissions":["tickets:read"]}}`)

	res, err := c.Login(context.Background(), Credentials{Username: "  a@b.com ", Password: "x"})
	require.NoError(t, err)

	require.Len(t, calls.all(), 1)
	got := calls.all()[0]
	assert.Equal(t, "/api/v1/auth/login", got.path)
	assert.Equal(t, map[string]string{"email": "a@b.com", "password": "x"}, got.body)
	assert.Empty(t, got.auth)

	assert.Equal(t, "a1", res.AccessToken)
	assert.Equal(t, "r1", res.RefreshToken)
	assert.Equal(t, "u-1", res.User.ID)
	assert.True(t, res.User.HasPermission("tickets:read"))
}

func TestLoginPrefersEmailOverUsername(t *testing.T) {
	assert.Equal(t, "e@x.com", Credentials{Email: " e@x.com", Username: "other"}.Identifier())
	assert.Equal(t, "u@x.com", Credentials{Username: "u@x.com\t"}.Identifier())
}

func TestLoginInvalidCredentials(t *testing.T) {
	c, _, _ := newServer(t, http.StatusUnauthorized, `{"error":{"code":"UNAUTHORIZED","message":"invalid credentials"}}`)

	_, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "bad"})
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, httpclient.StatusOf(err))

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "invalid credentials", httpErr.Message)
	assert.Equal(t, MsgInvalidSession, Message(err))
}

func TestLoginRejectsIncompleteResponse(t *testing.T) {
	c, _, _ := newServer(t, http.StatusOK, `{"access_token":"a1","user":{"id":"u"}}`)

	_, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, httpclient.StatusOf(err))
}

func TestRefreshSendsRefreshToken(t *testing.T) {
	c, calls, _ := newServer(t, http.StatusOK, `{"access_token":"a2","refresh_token":"r2"}`)

	pair, err := c.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, TokenPair{AccessToken: "a2", RefreshToken: "r2"}, *pair)
	assert.Equal(t, "/api/v1/auth/refresh", calls.all()[0].path)
	assert.Equal(t, map[string]string{"refresh_token": "r1"}, calls.all()[0].body)
}

func TestRefreshWithoutTokenMakesNoCall(t *testing.T) {
	c, _, count := newServer(t, http.StatusOK, `{}`)

	_, err := c.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingRefreshToken)
	assert.True(t, httpclient.IsUnauthorized(err))
	assert.Equal(t, int32(0), count.Load())
}

func TestLogoutCallsCarryBearer(t *testing.T) {
	c, calls, _ := newServer(t, http.StatusNoContent, ``)

	require.NoError(t, c.LogoutAll(context.Background(), "a1"))
	require.NoError(t, c.LogoutOne(context.Background(), "a1", "jti-1"))
	require.Error(t, c.LogoutOne(context.Background(), "a1", ""))

	require.Len(t, calls.all(), 2)
	assert.Equal(t, "/api/v1/auth/logout-all", calls.all()[0].path)
	assert.Equal(t, "Bearer a1", calls.all()[0].auth)
	assert.Equal(t, "/api/v1/auth/logout-one", calls.all()[1].path)
	assert.Equal(t, map[string]string{"jti": "jti-1"}, calls.all()[1].body)
}

func TestSessionIDDecodesWithoutVerifying(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"jti": "sess-9", "typ": "refresh"})
	signed, err := token.SignedString([]byte("someone-elses-secret"))
	require.NoError(t, err)

	id, err := SessionID(signed)
	require.NoError(t, err)
	assert.Equal(t, "sess-9", id)

	noJTI, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = SessionID(noJTI)
	assert.Error(t, err)

	_, err = SessionID("opaque-refresh-token")
	assert.Error(t, err)
	_, err = SessionID("")
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, MsgInvalidSession, Message(httpclient.NewHTTPError(http.StatusUnauthorized, "expired")))
	assert.Equal(t, MsgNetwork, Message(&httpclient.HTTPError{Status: httpclient.StatusNetwork, Err: errors.New("refused")}))
	assert.Equal(t, "bad email", Message(httpclient.NewHTTPError(http.StatusBadRequest, "bad email")))
	assert.Equal(t, MsgUnknown, Message(httpclient.NewHTTPError(http.StatusInternalServerError, "")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
