package cache

import (
	"context"
	"sync"
	"time"
)

type item struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a thread-safe in-process cache with per-entry TTL.
type Memory struct {
	items    map[string]item
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemory(janitorInterval time.Duration) *Memory {
	c := &Memory{
		items: make(map[string]item),
		stop:  make(chan struct{}),
	}
	if janitorInterval > 0 {
		go c.cleanup(janitorInterval)
	}
	return c
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || time.Now().After(item.expiresAt) {
		return nil, ErrMiss
	}
	return item.value, nil
}

func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// Size returns the number of entries, expired ones included.
func (c *Memory) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the janitor goroutine.
func (c *Memory) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Memory) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Memory) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
}
