package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/outta-ai/outta-auth/pkg/cryptox"
	"github.com/outta-ai/outta-auth/pkg/jwtx"
)

var (
	cookieSecret  = strings.Repeat("ab", 32)
	signingSecret = strings.Repeat("cd", 32)
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BASE_URL", "https://api.outta.ai/")
	t.Setenv("TOKEN_SECRET", cookieSecret)
	t.Setenv("PUBLIC_TOKEN_SECRET", signingSecret)
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "client-secret")
	t.Setenv("MEMBER_STORE", StoreMemory)
}

func TestLoadConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://outta.ai, https://lab.outta.ai,")
	t.Setenv("PROVIDER_TIMEOUT", "5")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "3")

	cfg := LoadConfig()
	require.Equal(t, "https://api.outta.ai", cfg.BaseURL)
	require.Equal(t, []string{"https://outta.ai", "https://lab.outta.ai"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	require.Equal(t, 3, cfg.RateLimits.Strict.RequestsPerWindow)
	require.Equal(t, 3001, cfg.Port)
	require.Equal(t, "dev", cfg.Env)
	require.False(t, cfg.Production())
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			BaseURL:           "https://api.outta.ai",
			TokenSecret:       cookieSecret,
			PublicTokenSecret: signingSecret,
			MemberStore:       StoreSQLite,
			Port:              3001,
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"missing base url":     {func(c *Config) { c.BaseURL = "" }, "BASE_URL"},
		"relative base url":    {func(c *Config) { c.BaseURL = "api.outta.ai" }, "BASE_URL"},
		"missing token secret": {func(c *Config) { c.TokenSecret = "" }, "TOKEN_SECRET"},
		"short token secret":   {func(c *Config) { c.TokenSecret = "abcd" }, "TOKEN_SECRET"},
		"short signing secret": {func(c *Config) { c.PublicTokenSecret = "abcd" }, "PUBLIC_TOKEN_SECRET"},
		"shared secret":        {func(c *Config) { c.PublicTokenSecret = cookieSecret }, "must differ"},
		"unknown store":        {func(c *Config) { c.MemberStore = "postgres" }, "MEMBER_STORE"},
		"firestore project":    {func(c *Config) { c.MemberStore = StoreFirestore }, "FIRESTORE_PROJECT_ID"},
		"bad port":             {func(c *Config) { c.Port = 0 }, "PORT"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestLoadKeys(t *testing.T) {
	keys, err := LoadKeys(Config{TokenSecret: cookieSecret, PublicTokenSecret: signingSecret})
	require.NoError(t, err)
	require.Len(t, keys.Cookie, cryptox.CookieKeySize)
	require.Len(t, keys.Signing, jwtx.MinKeySize)

	t.Run("hashed cookie secret", func(t *testing.T) {
		keys, err := LoadKeys(Config{TokenSecret: "a passphrase", TokenSecretHashed: true, PublicTokenSecret: signingSecret})
		require.NoError(t, err)
		require.Len(t, keys.Cookie, cryptox.CookieKeySize)
	})

	t.Run("same secret", func(t *testing.T) {
		_, err := LoadKeys(Config{TokenSecret: signingSecret, PublicTokenSecret: signingSecret})
		require.ErrorIs(t, err, ErrSharedSecret)
	})

	t.Run("weak signing key", func(t *testing.T) {
		_, err := LoadKeys(Config{TokenSecret: cookieSecret, PublicTokenSecret: strings.Repeat("cd", 16)})
		require.ErrorIs(t, err, jwtx.ErrWeakKey)
	})
}

func TestNewApplication(t *testing.T) {
	setRequiredEnv(t)

	app, err := New(LoadConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	require.Equal(t, []string{"google"}, app.providers.Names())

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewApplicationFailsOnProviderConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "")

	_, err := New(LoadConfig())
	require.ErrorContains(t, err, "provider google")
	require.ErrorContains(t, err, "GOOGLE_OAUTH_CLIENT_SECRET")
}
