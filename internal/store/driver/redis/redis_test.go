package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/folio-app/folio/pkg/store"
)

// newTestStore connects to REDIS_ADDR (default localhost:6379) and skips the
// test when no server answers.
func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rs, err := New(&store.Config{
		Type:      "redis",
		Address:   addr,
		Timeout:   2 * time.Second,
		KeyPrefix: "folio-test",
	})
	if err != nil {
		t.Skipf("Redis is not available: %v", err)
	}
	t.Cleanup(func() { rs.Close() })
	return rs
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	rs := newTestStore(t)

	key := "session-" + time.Now().Format("150405.000000000")
	defer rs.Delete(ctx, key)

	if err := rs.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := rs.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get = %q, want payload", got)
	}

	ttl, err := rs.TTL(ctx, key)
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}

	if err := rs.Expire(ctx, key, time.Hour); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if ttl, _ := rs.TTL(ctx, key); ttl <= time.Minute {
		t.Errorf("TTL after Expire = %v, want > 1m", ttl)
	}

	if err := rs.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err = rs.Get(ctx, key)
	if err != nil || got != nil {
		t.Errorf("Get after Delete = %q, %v; want nil, nil", got, err)
	}
	if ttl, _ := rs.TTL(ctx, key); ttl != -2*time.Second {
		t.Errorf("TTL of missing key = %v, want -2s", ttl)
	}
}

func TestRedisStore_Health(t *testing.T) {
	rs := newTestStore(t)

	health := rs.Health(context.Background())
	if health.Status != "healthy" {
		t.Errorf("Status = %s: %s", health.Status, health.Message)
	}
	if health.Details["type"] != "redis" {
		t.Errorf("type = %v", health.Details["type"])
	}
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(&store.Config{Address: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !store.IsConnectionError(err) {
		t.Errorf("error %v should be a connection error", err)
	}
}

func TestParseRedisInfo(t *testing.T) {
	info := "# Server\r\nredis_version:7.2.4\r\nuptime_in_seconds:42\r\n\r\n"
	got := parseRedisInfo(info)
	if got["redis_version"] != "7.2.4" || got["uptime_in_seconds"] != "42" {
		t.Errorf("parseRedisInfo = %v", got)
	}
}
