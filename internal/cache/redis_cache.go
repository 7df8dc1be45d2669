package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisCache реализует CacheRepo поверх Redis.
// Кеш переживает рестарт сервера симуляции, поэтому сводки чанков
// доступны сразу после подъёма узла.
type RedisCache struct {
	client *redis.Client

	hits   uint64
	misses uint64
	sets   uint64
	errs   uint64
}

// NewRedisCache подключается к Redis по URL вида redis://host:port/db
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logging.Info("RedisCache подключен: %s", opts.Addr)
	return &RedisCache{client: client}, nil
}

// Get возвращает значение или ErrCacheMiss
func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := rc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		atomic.AddUint64(&rc.misses, 1)
		return nil, ErrCacheMiss
	}
	if err != nil {
		atomic.AddUint64(&rc.errs, 1)
		return nil, err
	}
	atomic.AddUint64(&rc.hits, 1)
	return val, nil
}

// Set сохраняет значение с TTL
func (rc *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := rc.client.Set(ctx, key, value, ttl).Err(); err != nil {
		atomic.AddUint64(&rc.errs, 1)
		return err
	}
	atomic.AddUint64(&rc.sets, 1)
	return nil
}

// Delete удаляет ключ
func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	return rc.client.Del(ctx, key).Err()
}

// Close закрывает соединение с Redis
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Metrics метрики кеша
func (rc *RedisCache) Metrics() CacheMetrics {
	return CacheMetrics{
		Hits:   atomic.LoadUint64(&rc.hits),
		Misses: atomic.LoadUint64(&rc.misses),
		Sets:   atomic.LoadUint64(&rc.sets),
		Errors: atomic.LoadUint64(&rc.errs),
	}
}
