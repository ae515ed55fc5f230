package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const documentKeyPrefix = "hourstay:document:"

// DocumentCache stores rendered invoice documents by key.
type DocumentCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type memoryDocumentCache struct {
	items Cache[string, []byte]
}

// NewMemoryDocumentCache keeps up to maxEntries documents in process.
func NewMemoryDocumentCache(maxEntries int, opts ...Option) DocumentCache {
	opts = append(opts, WithMaxSize(maxEntries))
	return &memoryDocumentCache{items: NewTTLCache[string, []byte](opts...)}
}

func (c *memoryDocumentCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := c.items.Get(key)
	return value, ok, nil
}

func (c *memoryDocumentCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if len(value) == 0 {
		return nil
	}
	c.items.Set(key, value, ttl)
	return nil
}

type RedisDocumentCache struct {
	client *redis.Client
}

func NewRedisDocumentCache(client *redis.Client) *RedisDocumentCache {
	return &RedisDocumentCache{client: client}
}

func (c *RedisDocumentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, documentKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisDocumentCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if len(value) == 0 {
		return nil
	}
	return c.client.Set(ctx, documentKeyPrefix+key, value, ttl).Err()
}

type noopDocumentCache struct{}

// NewNoopDocumentCache returns a cache that never stores anything.
func NewNoopDocumentCache() DocumentCache {
	return noopDocumentCache{}
}

func (noopDocumentCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (noopDocumentCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
