package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/doormarket/internal/model"
)

// Cache — хранилище строковых значений с TTL. Промах возвращает пустую строку без ошибки.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// RedisCache реализует Cache поверх Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache создаёт клиент Redis по адресу addr.
func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Ping проверяет доступность Redis.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get возвращает значение ключа или пустую строку, если ключа нет.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set сохраняет значение с TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close закрывает соединения с Redis.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

type cachedItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageURL  string          `json:"image_url"`
}

// CachedLookup кэширует найденные товары. Отсутствие товара не кэшируется.
// Ошибки кэша не прерывают запрос: чтение уходит в исходный каталог.
type CachedLookup struct {
	next   Lookup
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedLookup оборачивает next кэшем.
func NewCachedLookup(next Lookup, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedLookup {
	return &CachedLookup{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(kind model.ItemKind, id int64) string {
	return fmt.Sprintf("catalog:%s:%d", kind, id)
}

// Resolve реализует Lookup.
func (c *CachedLookup) Resolve(ctx context.Context, kind model.ItemKind, id int64) (*model.CatalogItem, error) {
	key := cacheKey(kind, id)

	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("catalog cache get error", zap.Error(err), zap.String("key", key))
	}
	if raw != "" {
		var ci cachedItem
		if err := json.Unmarshal([]byte(raw), &ci); err == nil {
			return &model.CatalogItem{
				Kind:      kind,
				ID:        id,
				Name:      ci.Name,
				UnitPrice: ci.UnitPrice,
				ImageURL:  ci.ImageURL,
			}, nil
		}
		c.logger.Warn("catalog cache entry is corrupted", zap.String("key", key))
	}

	item, err := c.next.Resolve(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cachedItem{Name: item.Name, UnitPrice: item.UnitPrice, ImageURL: item.ImageURL})
	if err == nil {
		if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
			c.logger.Warn("catalog cache set error", zap.Error(err), zap.String("key", key))
		}
	}

	return item, nil
}
