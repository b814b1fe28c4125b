package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "hrportal:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease lock built on SET NX PX. The lease bounds how long a crashed
// holder blocks others.
type Redis struct {
	client  redis.UniversalClient
	ttl     time.Duration
	timeout time.Duration
	poll    time.Duration
	logger  *slog.Logger
}

type RedisOption func(*Redis)

func WithLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = logger }
}

// WithPollInterval sets how often a waiting Lock retries.
func WithPollInterval(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.poll = d
		}
	}
}

func NewRedis(client redis.UniversalClient, ttl, timeout time.Duration, opts ...RedisOption) *Redis {
	r := &Redis{
		client:  client,
		ttl:     ttl,
		timeout: timeout,
		poll:    25 * time.Millisecond,
		logger:  slog.Default(),
	}
	if r.ttl <= 0 {
		r.ttl = 30 * time.Second
	}
	if r.timeout <= 0 {
		r.timeout = 5 * time.Second
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(waitCtx, redisKey, token, r.ttl).Result()
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, busy(waitCtx.Err())
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return r.releaser(ctx, redisKey, token), nil
		}
		select {
		case <-waitCtx.Done():
			return nil, busy(waitCtx.Err())
		case <-ticker.C:
		}
	}
}

func (r *Redis) releaser(ctx context.Context, redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { r.release(ctx, redisKey, token) })
	}
}

func (r *Redis) release(ctx context.Context, redisKey, token string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
		r.logger.WarnContext(ctx, "failed to release lock", "key", redisKey, "error", err)
	}
}
