package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SUPPORT_API_URL", "http://api.local:9000/")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("DEV_SEED_USERS", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "http://api.local:9000", cfg.API.BaseURL)
	require.Equal(t, StoreFile, cfg.Session.Store)
	require.Equal(t, "support.auth.", cfg.Session.KeyPrefix)
	require.Equal(t, 30*time.Second, cfg.API.Timeout())
	require.Equal(t, time.Second, cfg.Session.PollInterval())
	require.Len(t, cfg.Auth.SeedUsers, 1)
	require.Equal(t, "SUPER_ADMIN", cfg.Auth.SeedUsers[0].Role)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("SESSION_STORE", "cookie")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}

func TestParseSeedUsers(t *testing.T) {
	seeds, err := parseSeedUsers(" a@b.com:pw:company_admin , c@d.com:pw2 ")
	require.NoError(t, err)
	require.Equal(t, []SeedUser{
		{Email: "a@b.com", Password: "pw", Role: "COMPANY_ADMIN"},
		{Email: "c@d.com", Password: "pw2", Role: "AGENT"},
	}, seeds)

	_, err = parseSeedUsers("nopassword")
	require.Error(t, err)
}

func TestAuthTTLFallbacks(t *testing.T) {
	var a AuthConfig
	require.Equal(t, 15*time.Minute, a.AccessTokenTTL())
	require.Equal(t, 7*24*time.Hour, a.RefreshTokenTTL())

	a.AccessTokenTTLMinutes = 5
	require.Equal(t, 5*time.Minute, a.AccessTokenTTL())
}
