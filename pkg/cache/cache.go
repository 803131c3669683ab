package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface. Values are stored as JSON so
// both backends decode into the caller's type the same way.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	// TryLock acquires key for ttl. It reports false when another holder owns it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unlock releases key only if this instance holds it.
	Unlock(ctx context.Context, key string) error
	Close() error
}
