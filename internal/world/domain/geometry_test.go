package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdxRoundtrip(t *testing.T) {
	for idx := 0; idx < Volume; idx++ {
		x, y, z := XYZ(idx)
		assert.Equal(t, idx, Idx(x, y, z))
	}
}

func TestIdxLayout(t *testing.T) {
	// Порядок Y-Z-X: соседние по X воксели лежат рядом
	assert.Equal(t, 0, Idx(0, 0, 0))
	assert.Equal(t, 1, Idx(1, 0, 0))
	assert.Equal(t, Size, Idx(0, 0, 1))
	assert.Equal(t, Size*Size, Idx(0, 1, 0))
	assert.Equal(t, Volume-1, Idx(Size-1, Size-1, Size-1))
}

func TestInBounds(t *testing.T) {
	assert.True(t, InBounds(0))
	assert.True(t, InBounds(Volume-1))
	assert.False(t, InBounds(-1))
	assert.False(t, InBounds(Volume))
}

func TestNeighborsInterior(t *testing.T) {
	idx := Idx(8, 8, 8)
	for _, n := range Neighbors(idx) {
		assert.Equal(t, FaceNone, n.Face)
		nx, ny, nz := XYZ(n.Idx)
		dist := absInt(nx-8) + absInt(ny-8) + absInt(nz-8)
		assert.Equal(t, 1, dist)
	}
}

func TestNeighborsBoundaryWraps(t *testing.T) {
	// Воксель в углу чанка: три соседа за гранями
	idx := Idx(0, 0, 0)
	ns := Neighbors(idx)

	require.Equal(t, FaceNegX, ns[0].Face)
	assert.Equal(t, Idx(Size-1, 0, 0), ns[0].Idx)

	require.Equal(t, FaceNegY, ns[2].Face)
	assert.Equal(t, Idx(0, Size-1, 0), ns[2].Idx)

	require.Equal(t, FaceNegZ, ns[4].Face)
	assert.Equal(t, Idx(0, 0, Size-1), ns[4].Idx)

	// Внутренние соседи остаются в чанке
	assert.Equal(t, FaceNone, ns[1].Face)
	assert.Equal(t, FaceNone, ns[3].Face)
	assert.Equal(t, FaceNone, ns[5].Face)
}

func TestFaceOpposite(t *testing.T) {
	faces := []Face{FaceNegX, FacePosX, FaceNegY, FacePosY, FaceNegZ, FacePosZ}
	for _, f := range faces {
		assert.Equal(t, f, f.Opposite().Opposite())
		dx, dy, dz := f.Offset()
		ox, oy, oz := f.Opposite().Offset()
		assert.Equal(t, -dx, ox)
		assert.Equal(t, -dy, oy)
		assert.Equal(t, -dz, oz)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
