package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker serialises work on a key across concurrent callers.
type Locker interface {
	Acquire(ctx context.Context, key string) (Lock, error)
}

type Lock interface {
	Release(ctx context.Context) error
}

// Config selects and tunes a Locker.
type Config struct {
	Type     string // "none", "memory" or "redis"
	TTL      time.Duration
	Wait     time.Duration
	Interval time.Duration
}

// New builds the locker selected by cfg.Type. client is only used for "redis".
func New(cfg Config, client redis.UniversalClient) (Locker, error) {
	switch cfg.Type {
	case "", "none":
		return NoopLocker{}, nil
	case "memory":
		return NewMemoryLocker(), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis locker requires a redis client")
		}
		return NewRedisLocker(client, cfg.TTL, cfg.Wait, cfg.Interval), nil
	default:
		return nil, fmt.Errorf("unsupported lock type: %s", cfg.Type)
	}
}

// NoopLocker never blocks.
type NoopLocker struct{}

func (NoopLocker) Acquire(ctx context.Context, key string) (Lock, error) {
	return noopLock{}, nil
}

type noopLock struct{}

func (noopLock) Release(ctx context.Context) error { return nil }
