package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyzdyz010/voxworld/internal/vec"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	ctx := context.Background()

	_, err := mc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "k", []byte("value"), 0))
	got, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	// Возвращается копия: правка результата не портит кеш
	got[0] = 'X'
	got, err = mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestMemoryCacheTTL(t *testing.T) {
	mc := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "ephemeral", []byte("v"), 30*time.Millisecond))
	require.NoError(t, mc.Set(ctx, "forever", []byte("v"), 0))

	_, err := mc.Get(ctx, "ephemeral")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	_, err = mc.Get(ctx, "ephemeral")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = mc.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryCacheDelete(t *testing.T) {
	mc := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, mc.Delete(ctx, "k"))
	_, err := mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Удаление несуществующего ключа не ошибка
	assert.NoError(t, mc.Delete(ctx, "ghost"))
}

func TestMemoryCacheMetrics(t *testing.T) {
	mc := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), 0))
	_, _ = mc.Get(ctx, "k")
	_, _ = mc.Get(ctx, "k")
	_, _ = mc.Get(ctx, "missing")

	m := mc.Metrics()
	assert.Equal(t, uint64(2), m.Hits)
	assert.Equal(t, uint64(1), m.Misses)
	assert.Equal(t, uint64(1), m.Sets)
	assert.InDelta(t, 2.0/3.0, m.HitRatio(), 1e-9)
}

func TestHitRatioEmpty(t *testing.T) {
	var m CacheMetrics
	assert.Equal(t, 0.0, m.HitRatio())
}

func TestChunkCacheRoundtrip(t *testing.T) {
	cc := NewChunkCache(NewMemoryCache(), time.Minute)
	ctx := context.Background()

	coords := vec.Vec3{X: 2, Y: 4, Z: -1}
	_, err := cc.Get(ctx, coords)
	assert.ErrorIs(t, err, ErrCacheMiss)

	summary := &ChunkSummary{
		Coords:      coords,
		Tick:        42,
		Active:      map[string]int{"thermal": 3},
		PendingOps:  7,
		DirtyVoxels: 4,
		NeedsRemesh: true,
		Blocks:      map[string]int{"air": 4000, "wood": 96},
	}
	require.NoError(t, cc.Put(ctx, summary))

	got, err := cc.Get(ctx, coords)
	require.NoError(t, err)
	assert.Equal(t, summary, got)

	require.NoError(t, cc.Invalidate(ctx, coords))
	_, err = cc.Get(ctx, coords)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestChunkKeyFormat(t *testing.T) {
	assert.Equal(t, "chunk:-3:4:12", ChunkKey(vec.Vec3{X: -3, Y: 4, Z: 12}))
}
