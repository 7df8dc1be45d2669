package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dyzdyz010/voxworld/internal/vec"
)

// ChunkSummary сводка чанка для API и клиентов.
// Считается из живого чанка и кешируется до следующего изменения.
type ChunkSummary struct {
	Coords      vec.Vec3       `json:"coords"`
	Tick        uint64         `json:"tick"`
	Active      map[string]int `json:"active"`       // Размер активного набора по доменам
	PendingOps  int            `json:"pending_ops"`  // Записей журнала ждёт flush
	DirtyVoxels int            `json:"dirty_voxels"` // Вокселей затронуто с последнего flush
	NeedsRemesh bool           `json:"needs_remesh"` // Геометрия менялась
	Blocks      map[string]int `json:"blocks"`       // Гистограмма типов блоков
}

// ChunkKey ключ сводки чанка в кеше
func ChunkKey(coords vec.Vec3) string {
	return fmt.Sprintf("chunk:%d:%d:%d", coords.X, coords.Y, coords.Z)
}

// ChunkCache типизированная обёртка над CacheRepo для сводок чанков
type ChunkCache struct {
	repo CacheRepo
	ttl  time.Duration
}

// NewChunkCache создаёт кеш сводок с заданным TTL
func NewChunkCache(repo CacheRepo, ttl time.Duration) *ChunkCache {
	return &ChunkCache{repo: repo, ttl: ttl}
}

// Get возвращает сводку чанка или ErrCacheMiss
func (cc *ChunkCache) Get(ctx context.Context, coords vec.Vec3) (*ChunkSummary, error) {
	data, err := cc.repo.Get(ctx, ChunkKey(coords))
	if err != nil {
		return nil, err
	}
	var s ChunkSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Put сохраняет сводку чанка
func (cc *ChunkCache) Put(ctx context.Context, s *ChunkSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return cc.repo.Set(ctx, ChunkKey(s.Coords), data, cc.ttl)
}

// RepoMetrics метрики нижележащего кеша
func (cc *ChunkCache) RepoMetrics() CacheMetrics {
	return cc.repo.Metrics()
}

// Invalidate выкидывает сводку чанка
func (cc *ChunkCache) Invalidate(ctx context.Context, coords vec.Vec3) error {
	return cc.repo.Delete(ctx, ChunkKey(coords))
}
