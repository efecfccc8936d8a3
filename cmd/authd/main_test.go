package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/cookieauth"
	"github.com/MrEthical07/cookieauth/internal/authtest"
	promexport "github.com/MrEthical07/cookieauth/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := loadConfig()
	require.NoError(t, err)

	ec := cfg.engineConfig()
	assert.Equal(t, 30*time.Minute, ec.JWT.AccessTTL)
	assert.Equal(t, 14*24*time.Hour, ec.JWT.RefreshTTL)
	assert.Equal(t, 180*time.Second, ec.JWT.ClockSkew)
	assert.True(t, ec.Security.EnforceRefreshBinding)
	assert.False(t, ec.Cookie.Secure)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.RedisAddr)
	require.NoError(t, ec.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("AUTH_ACCESS_TTL_MS", "60000")
	t.Setenv("AUTH_CLOCK_SKEW_SECONDS", "0")
	t.Setenv("AUTH_COOKIE_SECURE", "true")
	t.Setenv("AUTH_PRODUCTION", "true")
	t.Setenv("AUTH_ENFORCE_REFRESH_BINDING", "false")
	t.Setenv("REDIS_DB", "3")

	cfg, err := loadConfig()
	require.NoError(t, err)

	ec := cfg.engineConfig()
	assert.Equal(t, time.Minute, ec.JWT.AccessTTL)
	assert.Zero(t, ec.JWT.ClockSkew)
	assert.True(t, ec.Cookie.Secure)
	assert.True(t, ec.Security.ProductionMode)
	assert.False(t, ec.Security.EnforceRefreshBinding)
	assert.Equal(t, 3, cfg.RedisDB)
	require.NoError(t, ec.Validate())
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := loadConfig()
	require.Error(t, err)
}

func newTestServer(t *testing.T, limiter *ipLimiter) (*httptest.Server, *authtest.Env) {
	t.Helper()
	env := authtest.New(t, authtest.Config())
	metrics, err := promexport.NewHandler(env.Engine)
	require.NoError(t, err)

	srv := httptest.NewServer(newRouter(routerDeps{
		Engine:       env.Engine,
		Logger:       slog.New(slog.DiscardHandler),
		LoginLimiter: limiter,
		Metrics:      metrics,
	}))
	t.Cleanup(srv.Close)
	return srv, env
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func post(t *testing.T, c *http.Client, url, body string) *http.Response {
	t.Helper()
	resp, err := c.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, c *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := newClient(t)

	resp := get(t, c, srv.URL+"/auth/me")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, c, srv.URL+"/auth/login", `{"login_id":"alice","password":"`+authtest.Password+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = get(t, c, srv.URL+"/auth/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"login_id":"alice"`)

	resp = post(t, c, srv.URL+"/auth/refresh", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, c, srv.URL+"/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The jar dropped both cookies.
	resp = get(t, c, srv.URL+"/auth/me")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = post(t, c, srv.URL+"/auth/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, env := newTestServer(t, nil)

	resp := get(t, http.DefaultClient, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	down := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { down.Close() })
	mr.Close()

	broken, err := cookieauth.New().WithConfig(authtest.Config()).WithRedis(down).WithDirectory(env.Dir).Build()
	require.NoError(t, err)
	t.Cleanup(broken.Close)

	rec := httptest.NewRecorder()
	healthHandler(broken).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "STORE_UNAVAILABLE")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := newClient(t)
	post(t, c, srv.URL+"/auth/login", `{"login_id":"alice","password":"`+authtest.Password+`"}`)

	resp := get(t, c, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "cookieauth_login_success_total 1")
}

func TestLoginRateLimited(t *testing.T) {
	srv, _ := newTestServer(t, newIPLimiter(0.001, 2))
	c := newClient(t)

	for i := 0; i < 2; i++ {
		resp := post(t, c, srv.URL+"/auth/login", `{"login_id":"alice","password":"wrong-password"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp := post(t, c, srv.URL+"/auth/login", `{"login_id":"alice","password":"wrong-password"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Other routes are not limited.
	resp = post(t, c, srv.URL+"/auth/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
