package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache реализует CacheRepo в памяти процесса.
// Используется в тестах и при запуске без Redis.
type MemoryCache struct {
	mu      sync.RWMutex
	items   map[string]memItem
	metrics CacheMetrics
}

type memItem struct {
	value   []byte
	expires time.Time // нулевое время — не истекает
}

// NewMemoryCache создаёт пустой кеш в памяти
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memItem)}
}

// Get возвращает значение или ErrCacheMiss
func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.items[key]
	if ok && !item.expires.IsZero() && time.Now().After(item.expires) {
		delete(mc.items, key)
		ok = false
	}
	if !ok {
		mc.metrics.Misses++
		return nil, ErrCacheMiss
	}
	mc.metrics.Hits++
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set сохраняет значение с TTL
func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item := memItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expires = time.Now().Add(ttl)
	}
	mc.items[key] = item
	mc.metrics.Sets++
	return nil
}

// Delete удаляет ключ
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	delete(mc.items, key)
	mc.mu.Unlock()
	return nil
}

// Close освобождает кеш
func (mc *MemoryCache) Close() error {
	mc.mu.Lock()
	mc.items = make(map[string]memItem)
	mc.mu.Unlock()
	return nil
}

// Metrics метрики кеша
func (mc *MemoryCache) Metrics() CacheMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.metrics
}
