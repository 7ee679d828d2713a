package portal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/folio-app/folio/internal/config"
	"github.com/folio-app/folio/internal/db"
	"github.com/folio-app/folio/internal/portal/auth"
	"github.com/folio-app/folio/internal/portal/handler"
	"github.com/folio-app/folio/internal/portal/middleware"
	"github.com/folio-app/folio/pkg/log"
	folio "github.com/folio-app/folio/pkg/portal"
	"github.com/folio-app/folio/pkg/store"
)

// Dependencies are the collaborators the server routes requests to
type Dependencies struct {
	Repository folio.Repository
	Users      folio.UserRepository
	Portfolios folio.PortfolioRepository
	Sessions   auth.SessionStore

	// SessionKV backs Sessions when they are server side; nil for JWT sessions
	SessionKV store.Store

	// DB runs each API request in a transaction; nil for the memory repositories
	DB *db.DB

	// Registry receives the HTTP metrics; nil means the default registry
	Registry *prometheus.Registry
	Version  string
}

// Server serves the JSON API and the single-page application
type Server struct {
	config     *config.Config
	deps       Dependencies
	engine     *gin.Engine
	httpServer *http.Server
	logger     log.Logger
	addr       string
	mu         sync.Mutex
	running    bool
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewServer creates a new server
func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	if deps.Users == nil || deps.Portfolios == nil || deps.Sessions == nil || deps.Repository == nil {
		return nil, fmt.Errorf("repositories and session store are required")
	}

	if cfg.IsTest() {
		gin.SetMode(gin.TestMode)
	} else if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		engine: gin.New(),
		logger: log.Component("server"),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           cfg.Server.Address,
		Handler:        s.engine,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	cfg := s.config
	sessions := middleware.NewSessions(s.deps.Sessions, s.deps.Users,
		cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Secure)

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var metricsHandler http.Handler = promhttp.Handler()
	if s.deps.Registry != nil {
		registerer = s.deps.Registry
		metricsHandler = promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{})
	}

	// Order matters: the request logger reads the user LoadUser resolves
	chain := []gin.HandlerFunc{gin.Recovery(), middleware.RequestID(), middleware.Tracing()}
	if cfg.Metrics.Enabled {
		chain = append(chain, middleware.NewMetrics(cfg.Metrics.Namespace, registerer).Handler())
	}
	chain = append(chain, middleware.RequestLogger(log.Component("http")))
	if s.deps.DB != nil {
		skip := []string{"/api/health"}
		if cfg.Metrics.Enabled {
			skip = append(skip, cfg.Metrics.Path)
		}
		chain = append(chain, middleware.Transaction(s.deps.DB, log.Component("tx"), skip...))
	}
	chain = append(chain, sessions.LoadUser())
	s.engine.Use(chain...)

	authHandler := handler.NewAuthHandler(s.deps.Users, sessions)
	portfolios := handler.NewPortfolioHandler(s.deps.Portfolios)
	health := handler.NewHealthHandler(s.deps.Repository, s.deps.SessionKV, s.deps.Version)
	requireUser := middleware.RequireUser()

	routes := []route{
		{http.MethodGet, "/api/health", []gin.HandlerFunc{health.Health}},
		{http.MethodPost, "/api/auth/login", []gin.HandlerFunc{authHandler.Login}},
		{http.MethodPost, "/api/auth/logout", []gin.HandlerFunc{authHandler.Logout}},
		{http.MethodPost, "/api/auth/register", []gin.HandlerFunc{authHandler.Register}},
		{http.MethodGet, "/api/auth/user", []gin.HandlerFunc{authHandler.User}},
		{http.MethodGet, "/api/portfolios", []gin.HandlerFunc{requireUser, portfolios.ListAll}},
		{http.MethodGet, "/api/portfolios/:id", []gin.HandlerFunc{requireUser, portfolios.FindByID}},
		{http.MethodPost, "/api/portfolios", []gin.HandlerFunc{requireUser, portfolios.Create}},
		{http.MethodPut, "/api/portfolios", []gin.HandlerFunc{requireUser, portfolios.Update}},
		{http.MethodDelete, "/api/portfolios/:id", []gin.HandlerFunc{requireUser, portfolios.Delete}},
	}
	if cfg.IsTest() {
		routes = append(routes, route{http.MethodPost, "/api/test/login", []gin.HandlerFunc{authHandler.FakeLogin}})
	}
	if cfg.Metrics.Enabled {
		routes = append(routes, route{http.MethodGet, cfg.Metrics.Path, []gin.HandlerFunc{gin.WrapH(metricsHandler)}})
	}

	for _, r := range routes {
		s.engine.Handle(r.method, r.path, r.handlers...)
	}
	s.engine.NoRoute(s.serveApp)
}

// serveApp serves files of the application bundle and falls back to
// index.html so client side routes survive a reload
func (s *Server) serveApp(c *gin.Context) {
	path := c.Request.URL.Path
	dir := s.config.Server.StaticDir
	if isAPIRoute(path) || dir == "" || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		middleware.WriteError(c, http.StatusNotFound, "NOT_FOUND", "no route for "+c.Request.Method+" "+path)
		return
	}

	file := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+path)))
	if info, err := os.Stat(file); err == nil && !info.IsDir() {
		c.File(file)
		return
	}
	c.File(filepath.Join(dir, "index.html"))
}

func isAPIRoute(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// Start binds the configured address and serves in the background. Bind
// failures are returned.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}
	addr := s.httpServer.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.running = true
	s.addr = ln.Addr().String()

	s.logger.Info("server starting", log.String("address", s.addr))
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", log.Error(err))
		}
	}()
	return nil
}

// Addr is the address the server listens on once started
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop drains in-flight requests within the configured shutdown timeout
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("server shutdown error", log.Error(err))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
