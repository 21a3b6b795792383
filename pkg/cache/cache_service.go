package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"klaus/internal/pkg/config"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// CacheService abstracts the cache backend so services can run against
// redis in production and memory in tests.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	InvalidatePattern(ctx context.Context, pattern string) error
}

// RedisCache is the redis-backed implementation.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates the redis cache service.
func NewRedisCache(client *redis.Client) CacheService {
	prefix := "klaus:"
	if config.GlobalConfig.Server.Mode == "test" {
		prefix = "test:" + prefix
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisCache) getKey(key string) string {
	return c.prefix + key
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, c.getKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.getKey(key), data, expiration).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.getKey(key)).Err()
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.client.Exists(ctx, c.getKey(key)).Result()
	return result > 0, err
}

func (c *RedisCache) InvalidatePattern(ctx context.Context, pattern string) error {
	keys, err := c.client.Keys(ctx, c.prefix+pattern).Result()
	if err != nil {
		return fmt.Errorf("cache keys error: %w", err)
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// MemoryCache is an in-process implementation for development and tests.
type MemoryCache struct {
	data map[string]*cacheItem
	mu   sync.RWMutex
}

type cacheItem struct {
	value      interface{}
	expiration time.Time
}

// NewMemoryCache creates the in-memory cache service.
func NewMemoryCache() CacheService {
	return &MemoryCache{
		data: make(map[string]*cacheItem),
	}
}

func (c *MemoryCache) getKey(key string) string {
	return "mem:" + key
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.data[c.getKey(key)]
	if !exists || time.Now().After(item.expiration) {
		return ErrCacheMiss
	}

	data, err := json.Marshal(item.value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	return json.Unmarshal(data, dest)
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[c.getKey(key)] = &cacheItem{
		value:      value,
		expiration: time.Now().Add(expiration),
	}

	c.cleanup()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, c.getKey(key))
	return nil
}

func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.data[c.getKey(key)]
	if !exists {
		return false, nil
	}
	if time.Now().After(item.expiration) {
		return false, nil
	}
	return true, nil
}

func (c *MemoryCache) InvalidatePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fullPattern := c.getKey(pattern)
	for key := range c.data {
		if matched, _ := filepath.Match(fullPattern, key); matched {
			delete(c.data, key)
		}
	}
	return nil
}

func (c *MemoryCache) cleanup() {
	now := time.Now()
	for key, item := range c.data {
		if now.After(item.expiration) {
			delete(c.data, key)
		}
	}
}
