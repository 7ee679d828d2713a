package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/folio-app/folio/internal/db"
)

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Env: EnvDev,
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxHeaderBytes:  1048576,
			StaticDir:       "web/dist",
		},
		Database: *db.DefaultConfig(),
		Session: SessionConfig{
			Store:      "memory",
			CookieName: "folio_session",
			TTL:        24 * time.Hour,
			Redis: RedisConfig{
				Address:   "localhost:6379",
				Timeout:   5 * time.Second,
				KeyPrefix: "folio",
			},
			JWT: JWTConfig{
				Algorithm: "HS256",
				Issuer:    "folio",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Driver: "stdout",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "folio",
		},
		Tracing: TracingConfig{
			Enabled: false,
			Jaeger: JaegerConfig{
				Endpoint:    "http://localhost:14268/api/traces",
				ServiceName: "folio",
				SampleRate:  1.0,
			},
		},
		Auth: AuthConfig{
			BcryptCost: bcrypt.DefaultCost,
		},
	}
}

// Load loads configuration from file with environment variable overrides
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file does not exist: %s", filename)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		cfg.Env = env
	}

	if addr := os.Getenv("FOLIO_SERVER_ADDRESS"); addr != "" {
		cfg.Server.Address = addr
	}
	if dir, ok := os.LookupEnv("FOLIO_STATIC_DIR"); ok {
		cfg.Server.StaticDir = dir
	}

	if driver := os.Getenv("FOLIO_DATABASE_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn := os.Getenv("FOLIO_DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	if store := os.Getenv("FOLIO_SESSION_STORE"); store != "" {
		cfg.Session.Store = store
	}
	if secret := os.Getenv("FOLIO_SESSION_SECRET"); secret != "" {
		cfg.Session.JWT.Secret = secret
	}
	if addr := os.Getenv("FOLIO_REDIS_ADDRESS"); addr != "" {
		cfg.Session.Redis.Address = addr
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("FOLIO_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	if enabled := os.Getenv("FOLIO_TRACING_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid FOLIO_TRACING_ENABLED: %w", err)
		}
		cfg.Tracing.Enabled = v
	}

	return nil
}

// validate validates the configuration
func validate(cfg *Config) error {
	switch cfg.Env {
	case EnvDev, EnvTest, EnvProd:
	default:
		return fmt.Errorf("invalid env: %s", cfg.Env)
	}

	if cfg.Server.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	switch cfg.Database.Driver {
	case "postgres", "pgx", "sqlite":
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database DSN cannot be empty")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid database driver: %s", cfg.Database.Driver)
	}

	if cfg.Session.CookieName == "" {
		return fmt.Errorf("session cookie name cannot be empty")
	}
	switch cfg.Session.Store {
	case "memory":
	case "redis":
		if cfg.Session.Redis.Address == "" {
			return fmt.Errorf("redis address cannot be empty when session store is redis")
		}
	case "jwt":
		if cfg.Session.JWT.Secret == "" {
			return fmt.Errorf("JWT secret cannot be empty when session store is jwt")
		}
	default:
		return fmt.Errorf("invalid session store: %s", cfg.Session.Store)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s", cfg.Logging.Format)
	}

	if cfg.Auth.BcryptCost != 0 && (cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if cfg.Tracing.Enabled && (cfg.Tracing.Jaeger.SampleRate < 0 || cfg.Tracing.Jaeger.SampleRate > 1) {
		return fmt.Errorf("tracing sample rate must be within [0, 1]")
	}

	return nil
}

// GetConfigDir returns the configuration directory
func GetConfigDir() string {
	if dir := os.Getenv("FOLIO_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "."
}
