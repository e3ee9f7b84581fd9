package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache — обёртка над Redis для кэширования read-model календаря.
// Клиент может быть nil: тогда все операции превращаются в no-op,
// сервис продолжает работать без кэша.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// NewClient создаёт Redis-клиент по URL. Возвращает nil, если
// соединение не установилось — кэширование тогда отключено.
func NewClient(redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}

	return client
}

// GetJSON читает значение из кэша. Возвращает false при промахе
// или недоступности Redis.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	if c == nil || c.client == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Ошибка чтения из кэша", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("Некорректное значение в кэше", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

// SetJSON пишет значение в кэш с TTL. Ошибки только логируются.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Не удалось сериализовать значение для кэша", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Ошибка записи в кэш", zap.String("key", key), zap.Error(err))
	}
}

// Clear удаляет все ключи пространства имён (prefix:*)
func (c *Cache) Clear(ctx context.Context, namespace string) {
	if c == nil || c.client == nil {
		return
	}

	pattern := fmt.Sprintf("%s:*", namespace)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("Ошибка очистки кэша", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Ошибка обхода ключей кэша", zap.String("pattern", pattern), zap.Error(err))
	}
}
