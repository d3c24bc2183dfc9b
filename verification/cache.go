package verification

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// VerdictCache caches conclusive verdicts by fingerprint for a short time so
// that bursts of verifications for the same certificate do not each hit the
// ledger gateway.
type VerdictCache interface {
	Get(ctx context.Context, fingerprint string) (*Verdict, error)
	Set(ctx context.Context, fingerprint string, v Verdict, ttl time.Duration) error
	Delete(ctx context.Context, fingerprint string) error
}

const redisKeyPrefix = "trustlayer:verdict:"

// RedisVerdictCache is a VerdictCache backed by redis.
type RedisVerdictCache struct {
	rdb *redis.Client
}

// NewRedisVerdictCache creates a RedisVerdictCache using the passed client
// and verifies the connection.
func NewRedisVerdictCache(opts *redis.Options) (*RedisVerdictCache, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "could not connect to redis")
	}
	return &RedisVerdictCache{rdb: rdb}, nil
}

// Get implements the VerdictCache interface
func (c *RedisVerdictCache) Get(ctx context.Context, fingerprint string) (*Verdict, error) {
	data, err := c.rdb.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var v Verdict
	if err = msgpack.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Set implements the VerdictCache interface
func (c *RedisVerdictCache) Set(ctx context.Context, fingerprint string, v Verdict, ttl time.Duration) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, redisKeyPrefix+fingerprint, data, ttl).Err()
}

// Delete implements the VerdictCache interface
func (c *RedisVerdictCache) Delete(ctx context.Context, fingerprint string) error {
	return c.rdb.Del(ctx, redisKeyPrefix+fingerprint).Err()
}

// MemoryVerdictCache is an in-process VerdictCache for deployments without
// redis.
type MemoryVerdictCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	verdict Verdict
	expires time.Time
}

// NewMemoryVerdictCache creates an empty MemoryVerdictCache
func NewMemoryVerdictCache() *MemoryVerdictCache {
	return &MemoryVerdictCache{entries: make(map[string]memoryEntry)}
}

// Get implements the VerdictCache interface
func (c *MemoryVerdictCache) Get(_ context.Context, fingerprint string) (*Verdict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fingerprint]
	if !ok {
		return nil, nil
	}
	if time.Now().After(e.expires) {
		delete(c.entries, fingerprint)
		return nil, nil
	}
	v := e.verdict
	return &v, nil
}

// Set implements the VerdictCache interface
func (c *MemoryVerdictCache) Set(_ context.Context, fingerprint string, v Verdict, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = memoryEntry{
		verdict: v,
		expires: time.Now().Add(ttl),
	}
	return nil
}

// Delete implements the VerdictCache interface
func (c *MemoryVerdictCache) Delete(_ context.Context, fingerprint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, fingerprint)
	return nil
}
