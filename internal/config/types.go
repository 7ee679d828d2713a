package config

import (
	"time"

	"github.com/folio-app/folio/internal/db"
)

// Profiles selected by Config.Env
const (
	EnvDev  = "dev"
	EnvTest = "test"
	EnvProd = "prod"
)

// Config represents the complete application configuration
type Config struct {
	Env      string        `yaml:"env"`
	Server   ServerConfig  `yaml:"server"`
	Database db.Config     `yaml:"database"`
	Session  SessionConfig `yaml:"session"`
	Logging  LoggingConfig `yaml:"logging"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Tracing  TracingConfig `yaml:"tracing"`
	Auth     AuthConfig    `yaml:"auth"`
}

// IsTest reports whether the test profile is active. Test-only routes are
// registered only then.
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	// StaticDir holds the single-page application bundle; empty disables it
	StaticDir string `yaml:"static_dir"`
}

// SessionConfig selects where login sessions live
type SessionConfig struct {
	// Store is "memory", "redis" or "jwt"
	Store      string        `yaml:"store"`
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure"`
	Redis      RedisConfig   `yaml:"redis"`
	JWT        JWTConfig     `yaml:"jwt"`
}

// RedisConfig represents the Redis session store
type RedisConfig struct {
	Address   string        `yaml:"address"`
	Password  string        `yaml:"password"`
	Database  int           `yaml:"database"`
	Timeout   time.Duration `yaml:"timeout"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// JWTConfig represents the stateless session signer
type JWTConfig struct {
	Secret    string `yaml:"secret"`
	Algorithm string `yaml:"algorithm"`
	Issuer    string `yaml:"issuer"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Driver string `yaml:"driver"`
	// Format is "json" or "console"
	Format string `yaml:"format"`
	Caller bool   `yaml:"caller"`
}

// MetricsConfig represents Prometheus metrics configuration
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig represents tracing configuration
type TracingConfig struct {
	Enabled bool         `yaml:"enabled"`
	Jaeger  JaegerConfig `yaml:"jaeger"`
}

// JaegerConfig represents Jaeger configuration
type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// AuthConfig represents password hashing settings
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}
