// Package rate implements fixed-window request limiting keyed by an arbitrary string,
// typically the client IP.
package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

var ErrInvalidLimit = errors.New("rate: max and window must be positive")

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func result(hits, max int64, ttl, window time.Duration) Result {
	res := Result{Allowed: hits <= max, CurrentHits: hits, Remaining: max - hits}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = window
		}
	}
	return res
}

// RedisLimiter: INCR + EXPIRE on a key per window, shared across replicas.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client redis.UniversalClient, prefix string, max int, window time.Duration) (*RedisLimiter, error) {
	if max <= 0 || window <= 0 {
		return nil, ErrInvalidLimit
	}
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window, now: time.Now}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	winStart := l.now().UTC().Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate: redis: %w", err)
	}
	return result(incr.Val(), l.max, ttl.Val(), l.window), nil
}

// MemoryLimiter keeps windows in process. Counts are per replica.
type MemoryLimiter struct {
	mu     sync.Mutex
	c      *cache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) (*MemoryLimiter, error) {
	if max <= 0 || window <= 0 {
		return nil, ErrInvalidLimit
	}
	return &MemoryLimiter{
		c:      cache.New(window, 2*window),
		max:    int64(max),
		window: window,
		now:    time.Now,
	}, nil
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())

	l.mu.Lock()
	var hits int64 = 1
	if v, ok := l.c.Get(k); ok {
		hits = v.(int64) + 1
	}
	l.c.Set(k, hits, l.window)
	l.mu.Unlock()

	return result(hits, l.max, winStart.Add(l.window).Sub(now), l.window), nil
}
