// Package cache provides the byte caches that sit in front of the NILU API.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/monorkin/soleklart/internal/config"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close()
}

const (
	BackendMemory = "memory"
	BackendValkey = "valkey"
	BackendNone   = "none"
)

// New returns the cache for the named backend. BackendNone yields a nil Cache.
func New(backend, valkeyAddr string, janitorInterval time.Duration) (Cache, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemory(janitorInterval), nil
	case BackendValkey:
		c, err := NewValkey(valkeyAddr)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// FromSettings builds the cache described by the cache settings section.
func FromSettings(settings config.CacheSettings) (Cache, error) {
	return New(settings.Backend, settings.ValkeyAddr, settings.TTL())
}
