package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/folio-app/folio/pkg/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*MemoryStore, *fakeClock) {
	t.Helper()
	ms, err := New(&store.Config{KeyPrefix: "test"})
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	t.Cleanup(func() { ms.Close() })

	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	ms.mu.Lock()
	ms.now = clock.Now
	ms.mu.Unlock()
	return ms, clock
}

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	ms, _ := newTestStore(t)

	value := []byte(`{"user_id":"u1"}`)
	if err := ms.Set(ctx, "session", value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value[0] = 'X'
	got, err := ms.Get(ctx, "session")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"user_id":"u1"}` {
		t.Errorf("Get returned %q, stored value must be copied", got)
	}

	got, err = ms.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Errorf("Get(missing) = %q, %v; want nil, nil", got, err)
	}

	if err := ms.Set(ctx, "", value, 0); err != store.ErrInvalidKey {
		t.Errorf("Set with empty key error = %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	ms, clock := newTestStore(t)

	if err := ms.Set(ctx, "s", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ttl, _ := ms.TTL(ctx, "s")
	if ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	clock.Advance(30 * time.Second)
	if err := ms.Expire(ctx, "s", time.Minute); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}

	clock.Advance(45 * time.Second)
	if got, _ := ms.Get(ctx, "s"); string(got) != "v" {
		t.Errorf("key expired although its ttl was refreshed")
	}

	clock.Advance(15 * time.Second)
	if got, _ := ms.Get(ctx, "s"); got != nil {
		t.Errorf("Get after expiry = %q, want nil", got)
	}
	if ttl, _ := ms.TTL(ctx, "s"); ttl != -2*time.Second {
		t.Errorf("TTL after expiry = %v, want -2s", ttl)
	}

	ms.performCleanup()
	if n := len(ms.data); n != 0 {
		t.Errorf("cleanup left %d entries", n)
	}
}

func TestMemoryStore_DeleteAndTTL(t *testing.T) {
	ctx := context.Background()
	ms, _ := newTestStore(t)

	ms.Set(ctx, "forever", []byte("v"), 0)
	if ttl, _ := ms.TTL(ctx, "forever"); ttl != -1*time.Second {
		t.Errorf("TTL without expiry = %v, want -1s", ttl)
	}

	if err := ms.Delete(ctx, "forever"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, _ := ms.Get(ctx, "forever"); got != nil {
		t.Error("key still present after Delete")
	}
	if err := ms.Expire(ctx, "forever", time.Minute); err != nil {
		t.Errorf("Expire on missing key: %v", err)
	}
}

func TestMemoryStore_KeyPrefix(t *testing.T) {
	ctx := context.Background()
	ms, _ := newTestStore(t)

	ms.Set(ctx, "k", []byte("v"), 0)
	if _, ok := ms.data["test:k"]; !ok {
		t.Error("expected key to be stored with prefix")
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	ms, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%26))
			ms.Set(ctx, key, []byte("v"), time.Minute)
			ms.Get(ctx, key)
			ms.Delete(ctx, key)
		}(i)
	}
	wg.Wait()
}

func TestMemoryStore_Health(t *testing.T) {
	ms, _ := newTestStore(t)

	health := ms.Health(context.Background())
	if health.Status != "healthy" {
		t.Errorf("Status = %s", health.Status)
	}
	if err := ms.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := ms.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
