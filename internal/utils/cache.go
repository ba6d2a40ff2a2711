package utils

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// Cache stores rendered pages with a per-entry TTL. Entries are never
// invalidated early; they only expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// CacheItem wraps cached data with its expiry.
type CacheItem struct {
	Data      []byte
	ExpiresAt time.Time
}

// LRUCache is an in-process cache bounded by entry count.
type LRUCache struct {
	lruCache *lru.Cache[string, CacheItem]
	now      func() time.Time
}

// NewLRUCache creates an LRU cache holding at most size entries.
func NewLRUCache(size int) (*LRUCache, error) {
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{lruCache: l, now: time.Now}, nil
}

var (
	defaultCache     *LRUCache
	defaultCacheOnce sync.Once
)

// GetCache returns the process-wide LRU cache with room for 500 pages.
func GetCache() *LRUCache {
	defaultCacheOnce.Do(func() {
		c, err := NewLRUCache(500)
		if err != nil {
			panic(err)
		}
		defaultCache = c
	})
	return defaultCache
}

func (c *LRUCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(ttl),
	})
	return nil
}

// Get returns the entry for key unless it is missing or expired.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil, false, nil
	}

	if c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil, false, nil
	}

	return val.Data, true, nil
}

// RedisCache keeps pages in Redis so several server processes share them.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(addr string) (*redis.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}
