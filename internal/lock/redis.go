package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"payhub-backend/internal/logger"
)

const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// RedisLocker holds locks as "lock:<key>" entries set with NX and a TTL, so a
// crashed holder cannot block a key forever.
type RedisLocker struct {
	client   redis.UniversalClient
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl, wait, interval time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait, interval: interval}
}

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              db,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (r *RedisLocker) Acquire(ctx context.Context, key string) (Lock, error) {
	redisKey := "lock:" + key
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, r.wait)
	defer cancel()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			logger.ExternalServiceResult("redis", "SetNX", err, "key", redisKey)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctxErr)
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			logger.Debug("lock acquired", "key", redisKey, "ttl", r.ttl)
			return &redisLock{client: r.client, key: redisKey, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

type redisLock struct {
	client redis.UniversalClient
	key    string
	token  string
}

// Release deletes the key only while it still carries this lock's token.
func (l *redisLock) Release(ctx context.Context) error {
	result, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("lock %s not owned by this token (expired or stolen)", l.key)
	}
	return nil
}
