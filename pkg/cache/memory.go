package cache

import (
	"sync"
	"time"
)

type entry struct {
	value []byte
	exp   time.Time
}

// MemoryCache is an in-process TTL cache. Expired entries are dropped lazily
// on read and swept by a background janitor.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	janitor *time.Ticker
	done    chan struct{}
}

// MemoryOption configures MemoryCache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	cleanupInterval time.Duration
}

// WithCleanupInterval sets the janitor sweep interval.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		if d > 0 {
			c.cleanupInterval = d
		}
	}
}

// NewMemoryCache creates an in-memory BytesCache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &memoryConfig{cleanupInterval: 5 * time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		entries: make(map[string]entry),
		janitor: time.NewTicker(cfg.cleanupInterval),
		done:    make(chan struct{}),
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) GetBytes(key string) ([]byte, bool, error) {
	mc.mu.RLock()
	e, ok := mc.entries[key]
	mc.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		mc.mu.Lock()
		delete(mc.entries, key)
		mc.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (mc *MemoryCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	mc.mu.Lock()
	mc.entries[key] = entry{value: value, exp: exp}
	mc.mu.Unlock()
	return nil
}

// Close stops the janitor.
func (mc *MemoryCache) Close() {
	mc.janitor.Stop()
	close(mc.done)
}

func (mc *MemoryCache) sweep() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.janitor.C:
			now := time.Now()
			mc.mu.Lock()
			for k, e := range mc.entries {
				if !e.exp.IsZero() && now.After(e.exp) {
					delete(mc.entries, k)
				}
			}
			mc.mu.Unlock()
		}
	}
}
