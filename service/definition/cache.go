/*
 * @module service/definition/cache
 * @description 定义缓存：进程内 ristretto 或多实例共享的 Redis，定义写入时失效
 * @architecture 显式依赖 - Store 通过 Cache 接口使用缓存，不依赖全局状态
 * @rules 缓存值为定义的 JSON 序列化结果；缓存异常只记日志，不影响读写
 * @dependencies github.com/dgraph-io/ristretto/v2, github.com/go-redis/redis/v8
 * @refs store.go, service/init.go
 */

package definition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-redis/redis/v8"
)

// Cache 定义缓存
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
}

// NopCache 不缓存
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (NopCache) Set(context.Context, string, []byte, time.Duration) {}

func (NopCache) Invalidate(context.Context, string) {}

// LocalCache 进程内缓存
type LocalCache struct {
	cache *ristretto.Cache[string, []byte]
}

// NewLocalCache 创建进程内缓存，maxBytes 为最大占用字节数
func NewLocalCache(maxBytes int64) (*LocalCache, error) {
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxBytes / 10,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("创建本地缓存失败: %w", err)
	}
	return &LocalCache{cache: cache}, nil
}

// Get 获取缓存
func (c *LocalCache) Get(_ context.Context, key string) ([]byte, bool) {
	return c.cache.Get(key)
}

// Set 写入缓存，写入后等待缓冲区落地，保证随后的读取可见
func (c *LocalCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	cost := int64(len(key) + len(value))
	if ttl > 0 {
		c.cache.SetWithTTL(key, value, cost, ttl)
	} else {
		c.cache.Set(key, value, cost)
	}
	c.cache.Wait()
}

// Invalidate 删除缓存
func (c *LocalCache) Invalidate(_ context.Context, key string) {
	c.cache.Del(key)
}

// Close 关闭缓存
func (c *LocalCache) Close() {
	c.cache.Close()
}

// RedisCache Redis 共享缓存
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache 创建 Redis 缓存
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "dynconfig:definition:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Get 获取缓存
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("读取定义缓存失败", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Set 写入缓存
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		slog.Warn("写入定义缓存失败", "key", key, "error", err)
	}
}

// Invalidate 删除缓存
func (c *RedisCache) Invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		slog.Warn("删除定义缓存失败", "key", key, "error", err)
	}
}
