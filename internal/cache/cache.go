// Package cache provides a small key/value cache with an in-process and a
// Redis backend.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auth-backend/internal/config"
)

// Client is the cache surface used by the service.
type Client interface {
	// Get returns ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; a zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var ErrNotFound = errors.New("cache: key not found")

// IsNotFound reports whether err is a cache miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New builds the client selected by cfg.Driver. It returns a nil Client for
// driver "none".
func New(ctx context.Context, cfg config.CacheConfig) (Client, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(cfg.Prefix, cfg.TTL()), nil
	case "redis":
		return NewRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

func prefixed(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
