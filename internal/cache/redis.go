package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"retail_backoffice/internal/config"
	"retail_backoffice/internal/models"
	"retail_backoffice/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// RedisCache is a JSON read-through cache. Every key written for a store is
// remembered in a per-store set so one write can drop all of them. A nil
// *RedisCache is a valid, disabled cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 20,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	utils.LogInfo("Connected to redis", map[string]interface{}{"addr": cfg.Addr, "db": cfg.DB})
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Client exposes the underlying connection, nil when the cache is disabled.
func (c *RedisCache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// GetJSON decodes the cached value into dest and reports whether it was found.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value under key and registers the key with the store.
func (c *RedisCache) SetJSON(ctx context.Context, storeID int64, key string, value interface{}) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	pipe.SAdd(ctx, storeKeysKey(storeID), key)
	pipe.Expire(ctx, storeKeysKey(storeID), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// InvalidateStore removes every cached key of the store.
func (c *RedisCache) InvalidateStore(ctx context.Context, storeID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	setKey := storeKeysKey(storeID)
	keys, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("redis smembers %s: %w", setKey, err)
	}
	keys = append(keys, setKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func storeKeysKey(storeID int64) string {
	return fmt.Sprintf("store:%d:cache-keys", storeID)
}

// InventoryKey is the cache key of one product's stock record.
func InventoryKey(storeID, productID int64) string {
	return fmt.Sprintf("store:%d:inventory:%d", storeID, productID)
}

// InventoryListKey is the cache key of one page of the inventory list.
func InventoryListKey(storeID int64, filters models.InventoryFilters) string {
	var b strings.Builder
	fmt.Fprintf(&b, "store:%d:inventory-list:p%d:s%d", storeID, filters.Page, filters.PageSize)
	if filters.LowStockThreshold != nil {
		b.WriteString(":low")
		b.WriteString(strconv.Itoa(*filters.LowStockThreshold))
	}
	return b.String()
}
