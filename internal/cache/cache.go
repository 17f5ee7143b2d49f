package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Transients — минимальный контракт хранилища транзиентов:
// значения с TTL (кэш карточек, кэш каталога автора, метки «уже делали»).
type Transients interface {
	// Get возвращает значение и признак его наличия.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set сохраняет значение с TTL (0 — без срока).
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX сохраняет значение, только если ключа ещё нет. Возвращает true, если записал.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Delete удаляет ключи.
	Delete(ctx context.Context, keys ...string) error
	// Ping проверяет доступность Redis.
	Ping(ctx context.Context) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "vatomi:".
func NewRedisCache(redisURL, prefix string) (Transients, error) {
	if prefix == "" {
		prefix = "vatomi:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(k string) string { return c.prefix + k }

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return v, true, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *redisCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, c.key(key), value, ttl).Result()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}

	return c.rdb.Del(ctx, full...).Err()
}

func (c *redisCache) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *redisCache) Close() error { return c.rdb.Close() }
