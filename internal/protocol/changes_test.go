package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

func sampleOps() []domain.ChangeOp {
	return []domain.ChangeOp{
		{Idx: 0, Kind: domain.OpSetBlock, Block: block.Wood},
		{Idx: 4095, Kind: domain.OpAddFlag, Flag: block.FlagBurning},
		{Idx: 17, Kind: domain.OpRemoveFlag, Flag: block.FlagWet},
		{Idx: 256, Kind: domain.OpSetVariant, Variant: 3},
		{Idx: 300, Kind: domain.OpDomainState, Domain: domain.Thermal, Present: true, Value: domain.Value{A: 356.5, B: 0}},
		{Idx: 300, Kind: domain.OpDomainState, Domain: domain.Combustion, Present: false},
		{Idx: 42, Kind: domain.OpConflict, Dropped: domain.KindAddFlag, Winner: domain.KindSetBlock},
	}
}

func TestBatchRoundtrip(t *testing.T) {
	coords := vec.Vec3{X: -3, Y: 4, Z: 12}
	ops := sampleOps()

	data, err := EncodeBatch(coords, ops)
	require.NoError(t, err)

	gotCoords, gotOps, err := DecodeBatch(data)
	require.NoError(t, err)
	assert.Equal(t, coords, gotCoords)
	assert.Equal(t, ops, gotOps)
}

func TestBatchRoundtripEmpty(t *testing.T) {
	coords := vec.Vec3{X: 0, Y: 0, Z: 0}
	data, err := EncodeBatch(coords, nil)
	require.NoError(t, err)

	gotCoords, gotOps, err := DecodeBatch(data)
	require.NoError(t, err)
	assert.Equal(t, coords, gotCoords)
	assert.Empty(t, gotOps)
}

func TestDecodeBadMagic(t *testing.T) {
	data, err := EncodeBatch(vec.Vec3{}, sampleOps())
	require.NoError(t, err)

	data[0] = 0xFF
	_, _, err = DecodeBatch(data)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeBadVersion(t *testing.T) {
	data, err := EncodeBatch(vec.Vec3{}, sampleOps())
	require.NoError(t, err)

	data[2] = batchVersion + 1
	_, _, err = DecodeBatch(data)
	assert.ErrorIs(t, err, ErrBadVersion)
}

func TestDecodeTruncated(t *testing.T) {
	data, err := EncodeBatch(vec.Vec3{X: 1}, sampleOps())
	require.NoError(t, err)

	// Обрезка в любом месте пакета даёт ErrTruncated
	for _, cut := range []int{1, 3, 10, len(data) / 2, len(data) - 1} {
		_, _, err = DecodeBatch(data[:cut])
		assert.ErrorIs(t, err, ErrTruncated, "срез %d", cut)
	}
}

func TestDecodeUnknownOpKind(t *testing.T) {
	data, err := EncodeBatch(vec.Vec3{}, []domain.ChangeOp{
		{Idx: 1, Kind: domain.OpSetVariant, Variant: 1},
	})
	require.NoError(t, err)

	// kind лежит сразу после заголовка и idx записи
	data[len(data)-2] = 0xEE
	_, _, err = DecodeBatch(data)
	assert.ErrorIs(t, err, ErrUnknownOpKind)
}

func TestEncodeUnknownOpKind(t *testing.T) {
	_, err := EncodeBatch(vec.Vec3{}, []domain.ChangeOp{
		{Idx: 1, Kind: domain.OpKind(99)},
	})
	assert.ErrorIs(t, err, ErrUnknownOpKind)
}
