package world

import (
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// ChunkView замороженный срез чанка на момент начала тика.
// Реализует domain.View: стадии FieldUpdate и Reactions читают мир
// только через такие срезы, пока Commit пишет в живые чанки.
type ChunkView struct {
	coords vec.Vec3

	blocks   [ChunkVolume]block.ID
	flags    [ChunkVolume]block.Flags
	variants [ChunkVolume]uint8

	values map[domain.ID]domain.Store
	active map[domain.ID][]int

	reg       *block.Registry
	neighbors [domain.FaceCount + 1]*ChunkView // индекс по domain.Face
}

// Coords координаты чанка
func (v *ChunkView) Coords() vec.Vec3 { return v.coords }

// Block тип блока вокселя
func (v *ChunkView) Block(idx int) block.ID { return v.blocks[idx] }

// Def определение блока вокселя
func (v *ChunkView) Def(idx int) *block.Def { return v.reg.MustGet(v.blocks[idx]) }

// Flags маска состояний вокселя
func (v *ChunkView) Flags(idx int) block.Flags { return v.flags[idx] }

// Variant вариант вокселя
func (v *ChunkView) Variant(idx int) uint8 { return v.variants[idx] }

// Value доменное переопределение вокселя
func (v *ChunkView) Value(d domain.ID, idx int) (domain.Value, bool) {
	st, ok := v.values[d]
	if !ok {
		return domain.Value{}, false
	}
	return st.Get(idx)
}

// Active отсортированный активный набор домена
func (v *ChunkView) Active(d domain.ID) []int { return v.active[d] }

// Neighbor срез соседнего чанка или nil, если сосед не загружен
func (v *ChunkView) Neighbor(f domain.Face) domain.View {
	n := v.neighbors[f]
	if n == nil {
		return nil
	}
	return n
}

// linkNeighbor привязывает срез соседнего чанка за гранью
func (v *ChunkView) linkNeighbor(f domain.Face, n *ChunkView) {
	v.neighbors[f] = n
}
