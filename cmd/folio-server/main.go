package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/folio-app/folio/internal/config"
	"github.com/folio-app/folio/internal/db"
	"github.com/folio-app/folio/internal/httpclient"
	_ "github.com/folio-app/folio/internal/log/driver/stdout"
	"github.com/folio-app/folio/internal/portal"
	"github.com/folio-app/folio/internal/portal/auth"
	"github.com/folio-app/folio/internal/portal/repository/memory"
	"github.com/folio-app/folio/internal/portal/repository/sqldb"
	"github.com/folio-app/folio/internal/store"
	"github.com/folio-app/folio/internal/tracing"
	"github.com/folio-app/folio/pkg/log"
	pkgstore "github.com/folio-app/folio/pkg/store"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	healthcheck = flag.String("healthcheck", "", "Probe /api/health of a running server at this base URL and exit")
	version     = flag.Bool("version", false, "Show version information")
)

// Set at build time
var (
	Version   = "v0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("Folio %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	if *healthcheck != "" {
		os.Exit(probe(*healthcheck))
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.MustInitializeLogging(log.Options{
		Level:       cfg.Logging.Level,
		Driver:      cfg.Logging.Driver,
		Development: cfg.Logging.Format == "console",
		Caller:      cfg.Logging.Caller,
	})
	defer log.Shutdown()

	logger := log.Component("main")
	logger.Info("starting folio", log.StartupFields("folio", Version, cfg.Env, time.Now())...)

	if err := run(cfg, logger); err != nil {
		logger.Error("folio stopped with error", log.Error(err))
		log.Shutdown()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger log.Logger) error {
	ctx := context.Background()

	tp, err := tracing.NewTracerProvider(&cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer tp.Shutdown(context.Background())

	deps := portal.Dependencies{Version: Version}
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	if cfg.Database.Driver == "memory" {
		logger.Warn("using the in-memory repository, data is lost on exit")
		repo := memory.NewRepository()
		deps.Repository = repo
		deps.Users = memory.NewUserRepository(repo, hasher)
		deps.Portfolios = memory.NewPortfolioRepository(repo)
	} else {
		if err := db.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			return err
		}
		d, err := db.Open(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		if cfg.Database.AutoMigrate {
			if err := d.Migrate(); err != nil {
				d.Close()
				return err
			}
			if v, dirty, err := d.MigrationVersion(); err == nil {
				logger.Info("database migrated", log.Int64("version", int64(v)), log.Bool("dirty", dirty))
			}
		}
		repo := sqldb.NewRepository(d)
		deps.Repository = repo
		deps.Users = sqldb.NewUserRepository(d, hasher)
		deps.Portfolios = sqldb.NewPortfolioRepository(d)
		deps.DB = d
	}
	defer deps.Repository.Close()

	if err := openSessions(cfg, &deps); err != nil {
		return err
	}
	if deps.SessionKV != nil {
		defer deps.SessionKV.Close()
	}

	server, err := portal.NewServer(cfg, deps)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", log.String("signal", sig.String()))

	return server.Stop(context.Background())
}

func openSessions(cfg *config.Config, deps *portal.Dependencies) error {
	sc := cfg.Session
	switch sc.Store {
	case "jwt":
		js, err := auth.NewJWTSessionStore(sc.JWT.Secret, sc.JWT.Algorithm, sc.TTL, sc.JWT.Issuer)
		if err != nil {
			return err
		}
		deps.Sessions = js
		return nil
	case "redis":
		kv, err := store.New(&pkgstore.Config{
			Type:      "redis",
			Address:   sc.Redis.Address,
			Password:  sc.Redis.Password,
			Database:  sc.Redis.Database,
			Timeout:   sc.Redis.Timeout,
			KeyPrefix: sc.Redis.KeyPrefix,
		})
		if err != nil {
			return err
		}
		deps.SessionKV = kv
	default:
		kv, err := store.New(pkgstore.DefaultConfig())
		if err != nil {
			return err
		}
		deps.SessionKV = kv
	}
	deps.Sessions = auth.NewKVSessionStore(deps.SessionKV, sc.TTL)
	return nil
}

// probe is used as a container health check
func probe(baseURL string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := httpclient.New(baseURL, httpclient.WithRetry(2, 500*time.Millisecond))
	var health struct {
		Status string `json:"status"`
	}
	if err := client.Get(ctx, "/api/health", &health); err != nil {
		fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		return 1
	}
	fmt.Println(health.Status)
	return 0
}
