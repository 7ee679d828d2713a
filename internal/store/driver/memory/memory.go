package memory

import (
	"context"
	"sync"
	"time"

	"github.com/folio-app/folio/pkg/store"
)

type entry struct {
	value     []byte
	expiresAt time.Time
	hasExpiry bool
}

func (e *entry) isExpired(now time.Time) bool {
	return e.hasExpiry && !now.Before(e.expiresAt)
}

// MemoryStore implements store.Store in process memory. Expired keys are
// invisible immediately and removed by a background sweep.
type MemoryStore struct {
	data      map[string]*entry
	mu        sync.RWMutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
	keyPrefix string
	started   bool
	now       func() time.Time
}

// New creates a new in-memory store instance
func New(config *store.Config) (*MemoryStore, error) {
	if config == nil {
		config = store.DefaultConfig()
	}

	ms := &MemoryStore{
		data:      make(map[string]*entry),
		stopCh:    make(chan struct{}),
		keyPrefix: config.KeyPrefix,
		now:       time.Now,
	}

	interval := config.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ms.start(interval)

	return ms, nil
}

func (ms *MemoryStore) start(interval time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.started {
		return
	}

	ms.started = true
	ms.wg.Add(1)
	go ms.cleanupExpired(interval)
}

func (ms *MemoryStore) getKey(key string) string {
	if ms.keyPrefix == "" {
		return key
	}
	return ms.keyPrefix + ":" + key
}

// Set stores a value by key with optional TTL
func (ms *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e := &entry{
		value:     make([]byte, len(value)),
		hasExpiry: ttl > 0,
	}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = ms.now().Add(ttl)
	}

	ms.data[ms.getKey(key)] = e
	return nil
}

// Get retrieves a value by key
func (ms *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	e, exists := ms.data[ms.getKey(key)]
	if !exists || e.isExpired(ms.now()) {
		return nil, nil
	}

	result := make([]byte, len(e.value))
	copy(result, e.value)
	return result, nil
}

// Delete removes a key from storage
func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.data, ms.getKey(key))
	return nil
}

// Expire resets the TTL of an existing key
func (ms *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	e, exists := ms.data[ms.getKey(key)]
	if !exists || e.isExpired(now) {
		return nil
	}
	e.hasExpiry = ttl > 0
	e.expiresAt = now.Add(ttl)
	return nil
}

// TTL returns the remaining time to live for a key
func (ms *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := ms.now()
	e, exists := ms.data[ms.getKey(key)]
	switch {
	case !exists || e.isExpired(now):
		return -2 * time.Second, nil
	case !e.hasExpiry:
		return -1 * time.Second, nil
	}
	return e.expiresAt.Sub(now), nil
}

// Close stops the sweeper and drops all data
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	if !ms.started {
		ms.mu.Unlock()
		return nil
	}
	close(ms.stopCh)
	ms.started = false
	ms.mu.Unlock()

	ms.wg.Wait()

	ms.mu.Lock()
	ms.data = make(map[string]*entry)
	ms.mu.Unlock()
	return nil
}

// Health returns the health status of the store
func (ms *MemoryStore) Health(ctx context.Context) store.HealthStatus {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return store.HealthStatus{
		Status:    "healthy",
		Message:   "Memory store is operational",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"type":       "memory",
			"keys_count": len(ms.data),
		},
	}
}

func (ms *MemoryStore) cleanupExpired(interval time.Duration) {
	defer ms.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.performCleanup()
		case <-ms.stopCh:
			return
		}
	}
}

func (ms *MemoryStore) performCleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	for key, e := range ms.data {
		if e.isExpired(now) {
			delete(ms.data, key)
		}
	}
}
