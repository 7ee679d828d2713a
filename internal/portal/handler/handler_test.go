package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/folio-app/folio/internal/portal/auth"
	"github.com/folio-app/folio/internal/portal/middleware"
	"github.com/folio-app/folio/internal/portal/repository/memory"
	storememory "github.com/folio-app/folio/internal/store/driver/memory"
	"github.com/folio-app/folio/pkg/portal"
	"github.com/folio-app/folio/pkg/store"
)

const cookieName = "folio_session"

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	engine *gin.Engine
	users  *memory.UserRepository
	repo   *memory.Repository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	kv, err := storememory.New(&store.Config{Type: "memory", CleanupInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	repo := memory.NewRepository()
	users := memory.NewUserRepository(repo, auth.NewPasswordHasher(bcrypt.MinCost))
	sessions := middleware.NewSessions(auth.NewKVSessionStore(kv, time.Hour), users, cookieName, time.Hour, false)

	authHandler := NewAuthHandler(users, sessions)
	portfolios := NewPortfolioHandler(memory.NewPortfolioRepository(repo))

	r := gin.New()
	r.Use(sessions.LoadUser())
	api := r.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/register", authHandler.Register)
	api.GET("/auth/user", authHandler.User)
	api.POST("/test/login", authHandler.FakeLogin)
	api.GET("/portfolios", portfolios.ListAll)
	api.GET("/portfolios/:id", portfolios.FindByID)
	api.POST("/portfolios", portfolios.Create)
	api.PUT("/portfolios", portfolios.Update)
	api.DELETE("/portfolios/:id", portfolios.Delete)
	api.GET("/health", NewHealthHandler(repo, kv, "test").Health)

	return &testApp{engine: r, users: users, repo: repo}
}

func (a *testApp) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// sessionCookie returns the last session cookie set by the response, if it
// carries a value.
func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			found = c
		}
	}
	if found == nil || found.Value == "" {
		return nil
	}
	return found
}

func (a *testApp) login(t *testing.T, login, password string) *http.Cookie {
	t.Helper()
	w := a.do(http.MethodPost, "/api/auth/login", LoginRequest{Login: login, Password: password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	return cookie
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuth_LoginLogout(t *testing.T) {
	app := newTestApp(t)
	_, err := app.users.Create(context.Background(), "ann", portal.RoleUser, "de", "secret")
	require.NoError(t, err)

	cookie := app.login(t, "ann", "secret")

	w := app.do(http.MethodGet, "/api/auth/user", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[UserInfo](t, w)
	assert.Equal(t, "ann", info.Login)
	assert.Equal(t, portal.RoleUser, info.Role)
	assert.Equal(t, "de", info.Lang)

	w = app.do(http.MethodPost, "/api/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Nil(t, sessionCookie(w))

	w = app.do(http.MethodGet, "/api/auth/user", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_InvalidCredentialsClearSession(t *testing.T) {
	app := newTestApp(t)
	_, err := app.users.Create(context.Background(), "ann", portal.RoleUser, "", "secret")
	require.NoError(t, err)
	cookie := app.login(t, "ann", "secret")

	w := app.do(http.MethodPost, "/api/auth/login", LoginRequest{Login: "ann", Password: "wrong"}, cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "login.failed", decode[middleware.ErrorResponse](t, w).Code)
	assert.Nil(t, sessionCookie(w))

	// the previous session was invalidated server side as well
	w = app.do(http.MethodGet, "/api/auth/user", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPost, "/api/auth/login", map[string]string{"login": "ann"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// undeletableSessions fails every Delete.
type undeletableSessions struct {
	auth.SessionStore
}

func (undeletableSessions) Delete(context.Context, string) error {
	return errors.New("session store unavailable")
}

func TestAuth_LoginSurvivesFailedSessionClear(t *testing.T) {
	kv, err := storememory.New(&store.Config{Type: "memory", CleanupInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	users := memory.NewUserRepository(memory.NewRepository(), auth.NewPasswordHasher(bcrypt.MinCost))
	_, err = users.Create(context.Background(), "ann", portal.RoleUser, "", "secret")
	require.NoError(t, err)
	sessions := middleware.NewSessions(undeletableSessions{auth.NewKVSessionStore(kv, time.Hour)},
		users, cookieName, time.Hour, false)

	r := gin.New()
	r.Use(sessions.LoadUser())
	r.POST("/api/auth/login", NewAuthHandler(users, sessions).Login)
	app := &testApp{engine: r, users: users}

	first := app.login(t, "ann", "secret")
	w := app.do(http.MethodPost, "/api/auth/login", LoginRequest{Login: "ann", Password: "secret"}, first)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := sessionCookie(w)
	require.NotNil(t, second)
	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, "ann", decode[UserInfo](t, w).Login)
}

func TestAuth_Register(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/auth/register", RegisterRequest{Login: "bob", Password: "pw"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	info := decode[UserInfo](t, w)
	assert.Equal(t, portal.RoleUser, info.Role)
	assert.Equal(t, portal.DefaultLang, info.Lang)

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	w = app.do(http.MethodGet, "/api/auth/user", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodPost, "/api/auth/register", RegisterRequest{Login: "bob", Password: "pw"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USER_LOGIN_EXISTS", decode[middleware.ErrorResponse](t, w).Code)

	w = app.do(http.MethodPost, "/api/auth/register", RegisterRequest{Login: "carl", Password: "pw", Lang: "eng"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodPost, "/api/auth/register", RegisterRequest{Login: "dora", Password: strings.Repeat("a", 80)}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PASSWORD", decode[middleware.ErrorResponse](t, w).Code)
}

func TestFakeLogin(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/test/login?login=tester", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "tester", decode[UserInfo](t, w).Login)
	require.NotNil(t, sessionCookie(w))

	// an existing user is reused
	w = app.do(http.MethodPost, "/api/test/login?login=tester&page=portfolios", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/portfolios", w.Header().Get("Location"))
	count, err := app.users.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	w = app.do(http.MethodPost, "/api/test/login", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPortfolios_CRUD(t *testing.T) {
	app := newTestApp(t)
	_, err := app.users.Create(context.Background(), "ann", portal.RoleUser, "", "pw")
	require.NoError(t, err)
	cookie := app.login(t, "ann", "pw")

	w := app.do(http.MethodPost, "/api/portfolios", portal.Portfolio{Name: "Pension"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pension := decode[portal.Portfolio](t, w)
	require.NotEmpty(t, pension.ID)

	w = app.do(http.MethodPost, "/api/portfolios", portal.Portfolio{Name: "Crypto"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.do(http.MethodGet, "/api/portfolios", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]portal.Portfolio](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "Crypto", list[0].Name)
	assert.Equal(t, "Pension", list[1].Name)

	w = app.do(http.MethodGet, "/api/portfolios/"+pension.ID, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pension, decode[portal.Portfolio](t, w))

	w = app.do(http.MethodPut, "/api/portfolios", portal.Portfolio{ID: pension.ID, Name: "Retirement"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Retirement", decode[portal.Portfolio](t, w).Name)

	w = app.do(http.MethodDelete, "/api/portfolios/"+pension.ID, nil, cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(http.MethodGet, "/api/portfolios/"+pension.ID, nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PORTFOLIO_NOT_FOUND", decode[middleware.ErrorResponse](t, w).Code)

	w = app.do(http.MethodDelete, "/api/portfolios/"+pension.ID, nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPortfolios_Validation(t *testing.T) {
	app := newTestApp(t)
	_, err := app.users.Create(context.Background(), "ann", portal.RoleUser, "", "pw")
	require.NoError(t, err)
	cookie := app.login(t, "ann", "pw")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"blank name", http.MethodPost, "/api/portfolios", portal.Portfolio{Name: "  "}, http.StatusBadRequest},
		{"malformed id on create", http.MethodPost, "/api/portfolios", portal.Portfolio{ID: "x", Name: "a"}, http.StatusBadRequest},
		{"malformed id on get", http.MethodGet, "/api/portfolios/not-a-uuid", nil, http.StatusBadRequest},
		{"update without id", http.MethodPut, "/api/portfolios", portal.Portfolio{Name: "a"}, http.StatusBadRequest},
		{"invalid json", http.MethodPost, "/api/portfolios", "[", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(tt.method, tt.path, tt.body, cookie)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestPortfolios_Ownership(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	_, err := app.users.Create(ctx, "ann", portal.RoleUser, "", "pw")
	require.NoError(t, err)
	_, err = app.users.Create(ctx, "bob", portal.RoleUser, "", "pw")
	require.NoError(t, err)
	ann := app.login(t, "ann", "pw")
	bob := app.login(t, "bob", "pw")

	w := app.do(http.MethodPost, "/api/portfolios", portal.Portfolio{Name: "Private"}, ann)
	require.Equal(t, http.StatusCreated, w.Code)
	p := decode[portal.Portfolio](t, w)

	w = app.do(http.MethodGet, "/api/portfolios/"+p.ID, nil, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodPut, "/api/portfolios", portal.Portfolio{ID: p.ID, Name: "Stolen"}, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodDelete, "/api/portfolios/"+p.ID, nil, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodGet, "/api/portfolios", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]portal.Portfolio](t, w))

	w = app.do(http.MethodGet, "/api/portfolios/"+p.ID, nil, ann)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Private", decode[portal.Portfolio](t, w).Name)
}

func TestPortfolios_Anonymous(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/portfolios", "/api/portfolios/6b0f4e2a-9a53-4b4f-a7b6-2a0f0c1e5d11"} {
		w := app.do(http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "login.unauthorized", decode[middleware.ErrorResponse](t, w).Code)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])

	require.NoError(t, app.repo.Close())
	w = app.do(http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
