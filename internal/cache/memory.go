package cache

import (
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 10000

// MemoryClient is a process local cache used when no Redis is configured.
type MemoryClient struct {
	mu      sync.RWMutex
	data    map[string]entry
	maxSize int
	now     func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryClient(maxSize int) *MemoryClient {
	if maxSize <= 0 {
		maxSize = defaultMaxEntries
	}
	return &MemoryClient{
		data:    make(map[string]entry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (c *MemoryClient) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, ErrCacheMiss
	}
	return e.value, nil
}

func (c *MemoryClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.data[key]; !ok && len(c.data) >= c.maxSize {
		c.evict()
	}

	c.data[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func (c *MemoryClient) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

func (c *MemoryClient) Close() error {
	return nil
}

// evict drops expired entries, or the one expiring first when none are.
// Callers hold the write lock.
func (c *MemoryClient) evict() {
	now := c.now()
	var oldestKey string
	var oldest time.Time

	for key, e := range c.data {
		if !now.Before(e.expiresAt) {
			delete(c.data, key)
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey = key
			oldest = e.expiresAt
		}
	}

	if len(c.data) >= c.maxSize && oldestKey != "" {
		delete(c.data, oldestKey)
	}
}
