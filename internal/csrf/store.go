package csrf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Store records issued state ids until they are consumed or expire.
type Store interface {
	Put(ctx context.Context, id string, ttl time.Duration) error
	// Consume removes id and reports whether it was present.
	Consume(ctx context.Context, id string) (bool, error)
}

// MemoryStore keeps ids in process. Single-instance deployments only.
type MemoryStore struct {
	mu sync.Mutex
	c  *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (s *MemoryStore) Put(_ context.Context, id string, ttl time.Duration) error {
	s.c.Set(id, struct{}{}, ttl)
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.c.Get(id); !ok {
		return false, nil
	}
	s.c.Delete(id)
	return true, nil
}

// RedisStore shares ids across instances. Consume relies on GETDEL (Redis 6.2+).
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis connects and pings, failing fast on a bad address.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("csrf: redis ping failed: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Put(ctx context.Context, id string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(id), "1", ttl).Err()
}

func (s *RedisStore) Consume(ctx context.Context, id string) (bool, error) {
	err := s.client.GetDel(ctx, s.key(id)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
