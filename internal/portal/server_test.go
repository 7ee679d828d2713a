package portal

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/folio-app/folio/internal/config"
	"github.com/folio-app/folio/internal/portal/auth"
	"github.com/folio-app/folio/internal/portal/middleware"
	"github.com/folio-app/folio/internal/portal/repository/memory"
	storememory "github.com/folio-app/folio/internal/store/driver/memory"
	"github.com/folio-app/folio/pkg/store"
)

func newTestServer(t *testing.T, env string) *Server {
	t.Helper()

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>folio</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "app.js"), []byte("console.log(1)"), 0o644))

	cfg := config.Default()
	cfg.Env = env
	cfg.Server.StaticDir = static

	kv, err := storememory.New(&store.Config{Type: "memory", CleanupInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	repo := memory.NewRepository()
	s, err := NewServer(cfg, Dependencies{
		Repository: repo,
		Users:      memory.NewUserRepository(repo, auth.NewPasswordHasher(bcrypt.MinCost)),
		Portfolios: memory.NewPortfolioRepository(repo),
		Sessions:   auth.NewKVSessionStore(kv, cfg.Session.TTL),
		SessionKV:  kv,
		Registry:   prometheus.NewRegistry(),
		Version:    "test",
	})
	require.NoError(t, err)
	return s
}

func get(s *Server, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(config.Default(), Dependencies{})
	assert.Error(t, err)
}

func TestServer_FakeLoginOnlyInTest(t *testing.T) {
	s := newTestServer(t, config.EnvTest)
	w := get(s, http.MethodPost, "/api/test/login?login=e2e")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "folio_session" && c.Value != "" {
			session = c
		}
	}
	require.NotNil(t, session)

	w = get(s, http.MethodGet, "/api/portfolios", session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	dev := newTestServer(t, config.EnvDev)
	w = get(dev, http.MethodPost, "/api/test/login?login=e2e")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Unauthenticated(t *testing.T) {
	s := newTestServer(t, config.EnvDev)

	w := get(s, http.MethodGet, "/api/portfolios")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "login.unauthorized")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestServer_SinglePageApp(t *testing.T) {
	s := newTestServer(t, config.EnvDev)

	tests := []struct {
		name   string
		method string
		path   string
		status int
		body   string
	}{
		{"root", http.MethodGet, "/", http.StatusOK, "folio"},
		{"client route", http.MethodGet, "/portfolios/42", http.StatusOK, "folio"},
		{"asset", http.MethodGet, "/app.js", http.StatusOK, "console.log"},
		{"unknown api", http.MethodGet, "/api/nope", http.StatusNotFound, "NOT_FOUND"},
		{"post outside api", http.MethodPost, "/portfolios", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(s, tt.method, tt.path)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, config.EnvDev)

	w := get(s, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessions"`)

	w = get(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `folio_http_requests_total{method="GET",route="/api/health",status_code="200"} 1`),
		w.Body.String())
}

func TestServer_StartStop(t *testing.T) {
	s := newTestServer(t, config.EnvDev)
	s.config.Server.Address = "127.0.0.1:0"
	s.httpServer.Addr = "127.0.0.1:0"

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	resp, err := http.Get("http://" + s.Addr() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestServer_StartFailsWhenAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := newTestServer(t, config.EnvDev)
	s.httpServer.Addr = ln.Addr().String()

	err = s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ln.Addr().String())

	// a failed start leaves the server stopped
	assert.NoError(t, s.Stop(context.Background()))
	s.httpServer.Addr = "127.0.0.1:0"
	require.NoError(t, s.Start())
	assert.NoError(t, s.Stop(context.Background()))
}
