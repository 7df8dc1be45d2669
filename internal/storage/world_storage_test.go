package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

func openTestStorage(t *testing.T) *WorldStorage {
	t.Helper()
	ws, err := NewWorldStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestSaveLoadRoundtrip(t *testing.T) {
	ws := openTestStorage(t)
	coords := vec.Vec3{X: 1, Y: 4, Z: -7}

	ops := []domain.ChangeOp{
		{Idx: 5, Kind: domain.OpSetBlock, Block: block.Stone},
		{Idx: 5, Kind: domain.OpDomainState, Domain: domain.Thermal, Present: true, Value: domain.Value{A: 250}},
	}
	require.NoError(t, ws.SaveChanges(coords, ops))

	loaded, err := ws.LoadChanges(coords)
	require.NoError(t, err)
	assert.Equal(t, ops, loaded)

	// Чужой чанк пуст
	other, err := ws.LoadChanges(vec.Vec3{X: 9, Y: 9, Z: 9})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSaveAppendsInOrder(t *testing.T) {
	ws := openTestStorage(t)
	coords := vec.Vec3{X: 0, Y: 4, Z: 0}

	// Три flush'а: накат должен сохранить порядок записи
	for i := 0; i < 3; i++ {
		ops := []domain.ChangeOp{
			{Idx: uint16(i), Kind: domain.OpSetVariant, Variant: uint8(i)},
		}
		require.NoError(t, ws.SaveChanges(coords, ops))
	}

	loaded, err := ws.LoadChanges(coords)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i, op := range loaded {
		assert.Equal(t, uint16(i), op.Idx)
		assert.Equal(t, uint8(i), op.Variant)
	}
}

func TestSaveEmptyIsNoop(t *testing.T) {
	ws := openTestStorage(t)
	coords := vec.Vec3{X: 2, Y: 4, Z: 2}

	require.NoError(t, ws.SaveChanges(coords, nil))
	chunks, err := ws.Chunks()
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestCompactMergesPackets(t *testing.T) {
	ws := openTestStorage(t)
	coords := vec.Vec3{X: -1, Y: 4, Z: 3}

	var want []domain.ChangeOp
	for i := 0; i < 5; i++ {
		ops := []domain.ChangeOp{
			{Idx: uint16(100 + i), Kind: domain.OpSetBlock, Block: block.Wood},
			{Idx: uint16(100 + i), Kind: domain.OpAddFlag, Flag: block.FlagBurning},
		}
		want = append(want, ops...)
		require.NoError(t, ws.SaveChanges(coords, ops))
	}

	require.NoError(t, ws.Compact(coords))

	// Семантика наката не изменилась
	loaded, err := ws.LoadChanges(coords)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)

	// Дозапись после уплотнения продолжает журнал
	extra := []domain.ChangeOp{{Idx: 200, Kind: domain.OpSetBlock, Block: block.Ash}}
	require.NoError(t, ws.SaveChanges(coords, extra))
	loaded, err = ws.LoadChanges(coords)
	require.NoError(t, err)
	assert.Equal(t, append(want, extra...), loaded)
}

func TestCompactSinglePacketNoop(t *testing.T) {
	ws := openTestStorage(t)
	coords := vec.Vec3{X: 6, Y: 4, Z: 6}

	ops := []domain.ChangeOp{{Idx: 1, Kind: domain.OpSetVariant, Variant: 2}}
	require.NoError(t, ws.SaveChanges(coords, ops))
	require.NoError(t, ws.Compact(coords))

	loaded, err := ws.LoadChanges(coords)
	require.NoError(t, err)
	assert.Equal(t, ops, loaded)
}

func TestChunksListing(t *testing.T) {
	ws := openTestStorage(t)

	saved := []vec.Vec3{
		{X: 0, Y: 4, Z: 0},
		{X: -5, Y: 4, Z: 12},
		{X: 3, Y: 0, Z: -3},
	}
	ops := []domain.ChangeOp{{Idx: 0, Kind: domain.OpSetBlock, Block: block.Stone}}
	for _, c := range saved {
		require.NoError(t, ws.SaveChanges(c, ops))
		// Повторный flush не дублирует чанк в перечне
		require.NoError(t, ws.SaveChanges(c, ops))
	}

	chunks, err := ws.Chunks()
	require.NoError(t, err)
	assert.ElementsMatch(t, saved, chunks)
}

func TestClosedStorageRejects(t *testing.T) {
	ws, err := NewWorldStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, ws.Close())

	coords := vec.Vec3{X: 0, Y: 0, Z: 0}
	assert.Error(t, ws.SaveChanges(coords, []domain.ChangeOp{{Idx: 0, Kind: domain.OpSetVariant}}))
	_, err = ws.LoadChanges(coords)
	assert.Error(t, err)

	// Повторный Close безопасен
	assert.NoError(t, ws.Close())
}
