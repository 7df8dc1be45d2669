package world

import (
	"math/rand"

	"github.com/dyzdyz010/voxworld/internal/util"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// Константы рельефа в мировых вокселях
const (
	SeaLevel       = 4  // Уровень воды
	SnowHeight     = 28 // Выше — снежные вершины
	TerrainBase    = -8 // Нижняя граница рельефа
	TerrainHeight  = 48 // Амплитуда рельефа
	DesertNoiseMin = 0.65
)

// Generator генерирует ландшафт чанков по шуму Перлина.
// Генерация детерминирована сидом: один и тот же чанк всегда
// получается одинаковым, журнал изменений накатывается поверх.
type Generator struct {
	Seed        int64
	NoiseScale  float64 // Масштаб шума высот
	BiomeScale  float64 // Масштаб шума биомов
	TreeDensity float64 // Шанс дерева на колонку суши

	reg *block.Registry
}

// NewGenerator создаёт генератор ландшафта
func NewGenerator(seed int64, reg *block.Registry) *Generator {
	util.InitPerlinNoise(seed)

	return &Generator{
		Seed:        seed,
		NoiseScale:  0.02,
		BiomeScale:  0.008,
		TreeDensity: 0.04,
		reg:         reg,
	}
}

// Generate заполняет чанк ландшафтом. Вызывается до включения чанка
// в симуляцию, поэтому пишет напрямую, мимо журнала изменений.
func (g *Generator) Generate(c *Chunk) {
	coords := c.Coords
	chunkSeed := g.Seed + int64(coords.X)*31 + int64(coords.Y)*17 + int64(coords.Z)*13
	rng := rand.New(rand.NewSource(chunkSeed))

	baseX := coords.X << 4
	baseY := coords.Y << 4
	baseZ := coords.Z << 4

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			gx := baseX + x
			gz := baseZ + z

			noise := util.PerlinNoise2D(float64(gx)*g.NoiseScale, float64(gz)*g.NoiseScale, g.Seed)
			surface := TerrainBase + int(noise*TerrainHeight)

			biome := util.PerlinNoise2D(float64(gx)*g.BiomeScale, float64(gz)*g.BiomeScale, g.Seed+42)
			desert := biome > DesertNoiseMin

			for y := 0; y < ChunkSize; y++ {
				gy := baseY + y
				idx := domain.Idx(x, y, z)

				switch {
				case gy < surface-3:
					c.setBlockRaw(idx, block.Stone)
				case gy < surface:
					if desert {
						c.setBlockRaw(idx, block.Sand)
					} else {
						c.setBlockRaw(idx, block.Dirt)
					}
				case gy == surface:
					c.setBlockRaw(idx, g.surfaceBlock(gy, desert))
				case gy <= SeaLevel:
					c.setBlockRaw(idx, block.Water)
				default:
					c.setBlockRaw(idx, block.Air)
				}
			}

			// Деревья и трава на суше, в пределах этого чанка
			surfaceLocalY := surface - baseY
			if surfaceLocalY >= 0 && surfaceLocalY < ChunkSize-1 &&
				surface > SeaLevel && surface < SnowHeight && !desert {
				g.placeVegetation(c, rng, x, surfaceLocalY, z)
			}
		}
	}
}

// surfaceBlock блок поверхности в зависимости от высоты и биома
func (g *Generator) surfaceBlock(gy int, desert bool) block.ID {
	switch {
	case gy <= SeaLevel:
		return block.Sand
	case gy >= SnowHeight:
		return block.Snow
	case desert:
		return block.Sand
	default:
		return block.Grass
	}
}

// placeVegetation ставит дерево или траву над поверхностью.
// Деревья обрезаются по границе чанка: кросс-чанковая генерация
// не стоит своей сложности для ствола и кроны.
func (g *Generator) placeVegetation(c *Chunk, rng *rand.Rand, x, surfaceY, z int) {
	roll := rng.Float64()
	switch {
	case roll < g.TreeDensity:
		g.placeTree(c, rng, x, surfaceY+1, z)
	case roll < g.TreeDensity+0.06:
		c.setBlockRaw(domain.Idx(x, surfaceY+1, z), block.TallGrass)
	case roll < g.TreeDensity+0.08:
		c.setBlockRaw(domain.Idx(x, surfaceY+1, z), block.Flower)
	}
}

// placeTree ствол из брёвен и крона из листвы
func (g *Generator) placeTree(c *Chunk, rng *rand.Rand, x, y, z int) {
	trunk := 3 + rng.Intn(3)
	top := y + trunk
	for ty := y; ty < top && ty < ChunkSize; ty++ {
		c.setBlockRaw(domain.Idx(x, ty, z), block.Wood)
	}

	for dy := -1; dy <= 1; dy++ {
		for dz := -2; dz <= 2; dz++ {
			for dx := -2; dx <= 2; dx++ {
				lx, ly, lz := x+dx, top+dy, z+dz
				if lx < 0 || lx >= ChunkSize || ly < 0 || ly >= ChunkSize || lz < 0 || lz >= ChunkSize {
					continue
				}
				if dx == 0 && dz == 0 && dy < 0 {
					continue // ствол
				}
				if abs(dx)+abs(dz)+abs(dy) > 3 {
					continue
				}
				idx := domain.Idx(lx, ly, lz)
				if c.blocks[idx] == block.Air {
					c.setBlockRaw(idx, block.Leaves)
				}
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
