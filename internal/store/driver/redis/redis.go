package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/folio-app/folio/pkg/store"
)

// RedisStore implements store.Store on a Redis server, so sessions survive
// restarts and are shared between instances.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	config    *store.Config
}

// New connects to Redis and verifies the connection.
func New(config *store.Config) (*RedisStore, error) {
	if config == nil {
		config = store.DefaultConfig()
	}
	if config.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opts := &redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.Database,
	}
	if config.Timeout > 0 {
		opts.DialTimeout = config.Timeout
		opts.ReadTimeout = config.Timeout
		opts.WriteTimeout = config.Timeout
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", store.ErrStoreConnectionFailed, err)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: config.KeyPrefix,
		config:    config,
	}, nil
}

func (rs *RedisStore) getKey(key string) string {
	if rs.keyPrefix == "" {
		return key
	}
	return rs.keyPrefix + ":" + key
}

// Set stores a value by key with optional TTL
func (rs *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := rs.client.Set(ctx, rs.getKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Get retrieves a value by key
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := rs.client.Get(ctx, rs.getKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return result, nil
}

// Delete removes a key from storage
func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.getKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Expire resets the TTL of an existing key
func (rs *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	var err error
	if ttl > 0 {
		err = rs.client.Expire(ctx, rs.getKey(key), ttl).Err()
	} else {
		err = rs.client.Persist(ctx, rs.getKey(key)).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to expire key %s: %w", key, err)
	}
	return nil
}

// TTL returns the remaining time to live for a key
func (rs *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	result, err := rs.client.TTL(ctx, rs.getKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get TTL for key %s: %w", key, err)
	}

	// go-redis reports -2 for a missing key and -1 without expiry, in either
	// nanoseconds or seconds depending on the server version
	switch result {
	case -2, -2 * time.Second:
		return -2 * time.Second, nil
	case -1, -1 * time.Second:
		return -1 * time.Second, nil
	}
	return result, nil
}

// Close closes the store connection and releases resources
func (rs *RedisStore) Close() error {
	if rs.client != nil {
		return rs.client.Close()
	}
	return nil
}

// Health returns the health status of the store
func (rs *RedisStore) Health(ctx context.Context) store.HealthStatus {
	health := store.HealthStatus{
		Status:    "healthy",
		Message:   "Redis store is operational",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"type":     "redis",
			"address":  rs.config.Address,
			"database": rs.config.Database,
		},
	}

	if err := rs.client.Ping(ctx).Err(); err != nil {
		health.Status = "unhealthy"
		health.Message = fmt.Sprintf("Redis connection failed: %v", err)
		health.Details["error"] = err.Error()
		return health
	}

	if info, err := rs.client.Info(ctx, "server").Result(); err == nil {
		server := parseRedisInfo(info)
		health.Details["redis_version"] = server["redis_version"]
		health.Details["uptime_in_seconds"] = server["uptime_in_seconds"]
	}
	return health
}

// parseRedisInfo parses INFO output into key/value pairs
func parseRedisInfo(info string) map[string]string {
	result := make(map[string]string)
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, ok := strings.Cut(line, ":"); ok {
			result[key] = value
		}
	}
	return result
}
