// Package store defines the TTL key/value storage used for server-side sessions.
package store

import (
	"context"
	"time"
)

// Store is a key/value store with per-key expiry.
type Store interface {
	// Set stores value under key. A ttl of zero keeps the key until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value of key, or nil and no error when it is missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	Delete(ctx context.Context, key string) error

	// Expire resets the ttl of an existing key. Missing keys are ignored.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// TTL returns the remaining lifetime: -1s without expiry, -2s when missing.
	TTL(ctx context.Context, key string) (time.Duration, error)

	Close() error

	Health(ctx context.Context) HealthStatus
}

// HealthStatus represents the health status of a store
type HealthStatus struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Config selects and configures a store driver.
type Config struct {
	// Type is "memory" or "redis"
	Type string `yaml:"type" json:"type"`

	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	Database int    `yaml:"database" json:"database"`

	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// KeyPrefix namespaces every key as "<prefix>:<key>"
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`

	// CleanupInterval controls how often the memory driver drops expired keys
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// DefaultConfig returns an in-memory configuration.
func DefaultConfig() *Config {
	return &Config{
		Type:            "memory",
		Address:         "localhost:6379",
		Timeout:         5 * time.Second,
		KeyPrefix:       "folio",
		CleanupInterval: time.Minute,
	}
}
