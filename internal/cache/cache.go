// Package cache keeps the product and category lists in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/drstein77/fitstore/internal/models"
)

const (
	DefaultPrefix = "fitstore:catalog"
	DefaultTTL    = 5 * time.Minute
)

type Log interface {
	Debug(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// RedisCache stores each list as one JSON value under {prefix}:{name}.
// Redis failures are logged and reported as a miss.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    Log
}

// Connect parses addr as a redis:// URL or a bare host:port and pings the server.
func Connect(ctx context.Context, addr string, log Log) (*RedisCache, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return New(client, DefaultPrefix, DefaultTTL, log), nil
}

func New(client *redis.Client, prefix string, ttl time.Duration, log Log) *RedisCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl, log: log}
}

func (c *RedisCache) key(name string) string {
	return fmt.Sprintf("%s:%s", c.prefix, name)
}

func (c *RedisCache) Products(ctx context.Context) ([]models.Product, bool) {
	var products []models.Product
	return products, c.get(ctx, "productos", &products)
}

func (c *RedisCache) SetProducts(ctx context.Context, products []models.Product) {
	c.set(ctx, "productos", products)
}

func (c *RedisCache) Categories(ctx context.Context) ([]models.Category, bool) {
	var categories []models.Category
	return categories, c.get(ctx, "categorias", &categories)
}

func (c *RedisCache) SetCategories(ctx context.Context, categories []models.Category) {
	c.set(ctx, "categorias", categories)
}

// Invalidate drops both lists; category names travel inside products.
func (c *RedisCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, c.key("productos"), c.key("categorias")).Err(); err != nil {
		c.log.Error("cache invalidate failed", zap.Error(err))
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) get(ctx context.Context, name string, v any) bool {
	data, err := c.client.Get(ctx, c.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.String("key", c.key(name)))
		return false
	}
	if err != nil {
		c.log.Error("cache read failed", zap.String("key", c.key(name)), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.log.Error("cache entry is corrupt", zap.String("key", c.key(name)), zap.Error(err))
		return false
	}
	return true
}

func (c *RedisCache) set(ctx context.Context, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Error("cache encode failed", zap.String("key", c.key(name)), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(name), data, c.ttl).Err(); err != nil {
		c.log.Error("cache write failed", zap.String("key", c.key(name)), zap.Error(err))
	}
}
