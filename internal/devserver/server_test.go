package devserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-console/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Name: "devserver-test", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret:              "test-secret",
			AccessTokenTTLMinutes:  5,
			RefreshTokenTTLMinutes: 60,
			BcryptCost:             4,
			SeedUsers: []config.SeedUser{
				{Email: "admin@example.com", Password: "admin123", Role: "SUPER_ADMIN"},
				{Email: "viewer@example.com", Password: "viewer123", Role: "viewer"},
			},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(testConfig(), nil, nil)
	require.NoError(t, err)
	return srv
}

type response struct {
	status int
	body   map[string]any
}

func call(t *testing.T, srv *Server, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.App.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func login(t *testing.T, srv *Server, email, password string) (access, refresh string) {
	t.Helper()
	resp := call(t, srv, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	return resp.body["access_token"].(string), resp.body["refresh_token"].(string)
}

func errorCode(r response) string {
	envelope, _ := r.body["error"].(map[string]any)
	code, _ := envelope["code"].(string)
	return code
}

func TestLoginReturnsTokensAndUser(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "Admin@example.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, resp.status)
	assert.NotEmpty(t, resp.body["access_token"])
	assert.NotEmpty(t, resp.body["refresh_token"])
	user := resp.body["user"].(map[string]any)
	assert.Equal(t, "SUPER_ADMIN", user["role"])

	me := call(t, srv, http.MethodGet, "/api/v1/auth/me", resp.body["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, me.status)
	assert.Equal(t, user["id"], me.body["id"])

	assert.Equal(t, int64(1), srv.Metrics.Event("session|session_created"))
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t)

	bad := call(t, srv, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, bad.status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(bad))
	assert.Equal(t, "invalid credentials", bad.body["error"].(map[string]any)["message"])

	unknown := call(t, srv, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, unknown.status)

	missing := call(t, srv, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "admin@example.com"})
	assert.Equal(t, http.StatusBadRequest, missing.status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(missing))

	assert.Equal(t, int64(2), srv.Metrics.Event("session|login_failed"))
}

func TestRefreshRotatesAndRejectsReuse(t *testing.T) {
	srv := newTestServer(t)
	access, refresh := login(t, srv, "admin@example.com", "admin123")

	rotated := call(t, srv, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, rotated.status)
	newAccess := rotated.body["access_token"].(string)
	newRefresh := rotated.body["refresh_token"].(string)
	assert.NotEqual(t, refresh, newRefresh)

	reused := call(t, srv, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, reused.status)

	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/v1/auth/me", access, nil).status)
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/auth/me", newAccess, nil).status)

	// An access token is not a refresh token.
	wrongType := call(t, srv, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": newAccess})
	assert.Equal(t, http.StatusUnauthorized, wrongType.status)

	empty := call(t, srv, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, empty.status)
}

func TestLogoutOneRevokesThatSessionOnly(t *testing.T) {
	srv := newTestServer(t)
	accessA, refreshA := login(t, srv, "admin@example.com", "admin123")
	accessB, _ := login(t, srv, "admin@example.com", "admin123")

	claims, err := srv.Auth.TokenManager().ParseToken(refreshA, "refresh")
	require.NoError(t, err)

	resp := call(t, srv, http.MethodPost, "/api/v1/auth/logout-one", accessB, map[string]string{"jti": claims.ID})
	require.Equal(t, http.StatusOK, resp.status)

	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/v1/auth/me", accessA, nil).status)
	assert.Equal(t, http.StatusUnauthorized,
		call(t, srv, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refreshA}).status)
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/auth/me", accessB, nil).status)

	missing := call(t, srv, http.MethodPost, "/api/v1/auth/logout-one", accessB, map[string]string{"jti": "not-a-session"})
	assert.Equal(t, http.StatusNotFound, missing.status)
	noJTI := call(t, srv, http.MethodPost, "/api/v1/auth/logout-one", accessB, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, noJTI.status)
}

func TestLogoutOneIgnoresOtherUsersSessions(t *testing.T) {
	srv := newTestServer(t)
	adminAccess, _ := login(t, srv, "admin@example.com", "admin123")
	viewerAccess, viewerRefresh := login(t, srv, "viewer@example.com", "viewer123")

	claims, err := srv.Auth.TokenManager().ParseToken(viewerRefresh, "refresh")
	require.NoError(t, err)

	resp := call(t, srv, http.MethodPost, "/api/v1/auth/logout-one", adminAccess, map[string]string{"jti": claims.ID})
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/auth/me", viewerAccess, nil).status)
}

func TestLogoutAll(t *testing.T) {
	srv := newTestServer(t)
	accessA, _ := login(t, srv, "admin@example.com", "admin123")
	accessB, _ := login(t, srv, "admin@example.com", "admin123")

	resp := call(t, srv, http.MethodPost, "/api/v1/auth/logout-all", accessA, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(2), resp.body["revoked"])

	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/v1/auth/me", accessB, nil).status)
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodPost, "/api/v1/auth/logout-all", "", nil).status)
}

func TestCollectionsCRUD(t *testing.T) {
	srv := newTestServer(t)
	access, _ := login(t, srv, "admin@example.com", "admin123")

	for i := 0; i < 25; i++ {
		status := "OPEN"
		if i%5 == 0 {
			status = "CLOSED"
		}
		created := call(t, srv, http.MethodPost, "/api/v1/tickets", access, map[string]any{"title": "t", "status": status})
		require.Equal(t, http.StatusCreated, created.status)
	}

	page := call(t, srv, http.MethodGet, "/api/v1/tickets", access, nil)
	require.Equal(t, http.StatusOK, page.status)
	assert.Equal(t, float64(25), page.body["total"])
	assert.Equal(t, float64(20), page.body["limit"])
	assert.Len(t, page.body["items"], 20)

	capped := call(t, srv, http.MethodGet, "/api/v1/tickets?limit=500&offset=20", access, nil)
	assert.Equal(t, float64(100), capped.body["limit"])
	assert.Len(t, capped.body["items"], 5)

	closed := call(t, srv, http.MethodGet, "/api/v1/tickets?status=CLOSED", access, nil)
	assert.Equal(t, float64(5), closed.body["total"])

	badPage := call(t, srv, http.MethodGet, "/api/v1/tickets?limit=zero", access, nil)
	assert.Equal(t, http.StatusBadRequest, badPage.status)

	first := page.body["items"].([]any)[0].(map[string]any)
	id := first["id"].(string)

	patched := call(t, srv, http.MethodPatch, "/api/v1/tickets/"+id, access, map[string]any{"status": "RESOLVED"})
	require.Equal(t, http.StatusOK, patched.status)
	assert.Equal(t, "RESOLVED", patched.body["status"])

	got := call(t, srv, http.MethodGet, "/api/v1/tickets/"+id, access, nil)
	assert.Equal(t, "RESOLVED", got.body["status"])

	assert.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, "/api/v1/tickets/"+id, access, nil).status)
	gone := call(t, srv, http.MethodGet, "/api/v1/tickets/"+id, access, nil)
	assert.Equal(t, http.StatusNotFound, gone.status)
	assert.Equal(t, "NOT_FOUND", errorCode(gone))
}

func TestCollectionsRequireSessionAndRole(t *testing.T) {
	srv := newTestServer(t)
	viewer, _ := login(t, srv, "viewer@example.com", "viewer123")

	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/v1/companies", "", nil).status)
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/v1/companies", viewer, nil).status)

	denied := call(t, srv, http.MethodPost, "/api/v1/companies", viewer, map[string]any{"name": "Acme"})
	assert.Equal(t, http.StatusForbidden, denied.status)
	assert.Equal(t, "FORBIDDEN", errorCode(denied))

	users := call(t, srv, http.MethodGet, "/api/v1/users", viewer, nil)
	assert.Equal(t, float64(2), users.body["total"])
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	srv := newTestServer(t)

	live := call(t, srv, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, live.status)
	assert.Equal(t, "alive", live.body["status"])

	ready := call(t, srv, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, ready.status)

	missing := call(t, srv, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, missing.status)
	assert.Equal(t, "NOT_FOUND", errorCode(missing))
}
