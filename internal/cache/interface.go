package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss ключ отсутствует в кеше
var ErrCacheMiss = errors.New("ключ не найден в кеше")

// CacheRepo горячий кеш состояния мира.
// Используется API-слоем для сводок чанков, чтобы не дёргать
// живые чанки на каждый HTTP-запрос.
type CacheRepo interface {
	// Get возвращает значение или ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение с TTL. TTL = 0 — без истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет ключ
	Delete(ctx context.Context, key string) error

	// Close закрывает соединение
	Close() error

	// Metrics метрики кеша
	Metrics() CacheMetrics
}

// CacheMetrics счётчики попаданий кеша
type CacheMetrics struct {
	Hits   uint64
	Misses uint64
	Sets   uint64
	Errors uint64
}

// HitRatio доля попаданий (0..1)
func (m CacheMetrics) HitRatio() float64 {
	total := m.Hits + m.Misses
	if total == 0 {
		return 0
	}
	return float64(m.Hits) / float64(total)
}
