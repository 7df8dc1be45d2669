package world

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
	"github.com/dyzdyz010/voxworld/internal/world/domains/combustion"
	"github.com/dyzdyz010/voxworld/internal/world/domains/moisture"
	"github.com/dyzdyz010/voxworld/internal/world/domains/thermal"
)

// Чанки на высоте Y=4 (мировые Y 64..79) всегда из воздуха:
// рельеф генератора не поднимается выше Y=40
const skyChunkY = 4

func newTestWorld(t *testing.T, opts ManagerOptions) *WorldManager {
	t.Helper()
	reg, err := block.DefaultRegistry()
	require.NoError(t, err)
	doms, err := domain.NewRegistry(thermal.New(20.0), moisture.New(), combustion.New())
	require.NoError(t, err)

	if opts.Workers == 0 {
		opts.Workers = 2
	}
	return NewWorldManager(reg, doms, opts)
}

func loadSkyChunk(t *testing.T, wm *WorldManager, cx, cz int) *Chunk {
	t.Helper()
	c, err := wm.LoadChunk(vec.Vec3{X: cx, Y: skyChunkY, Z: cz})
	require.NoError(t, err)
	return c
}

// placeBlock ставит блок и прогоняет тик, чтобы он применился
func placeBlock(t *testing.T, wm *WorldManager, pos vec.Vec3, id block.ID) {
	t.Helper()
	require.NoError(t, wm.SetBlockAt(pos, id))
	wm.Step(1.0)
	got, err := wm.BlockAt(pos)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestStepBurnoutTimeline(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1})
	chunk := loadSkyChunk(t, wm, 0, 0)

	pos := vec.Vec3{X: 5, Y: skyChunkY*16 + 5, Z: 5}
	placeBlock(t, wm, pos, block.Wood)

	require.NoError(t, wm.IgniteAt(pos, 1.0))
	wm.Step(1.0) // поджиг применяется на Commit

	flags, err := wm.FlagsAt(pos)
	require.NoError(t, err)
	require.True(t, flags.Has(block.FlagBurning))

	// BurnEnergy=10, BurnRate=1, dt=1: десять тиков горения
	for i := 0; i < 9; i++ {
		wm.Step(1.0)
		flags, _ = wm.FlagsAt(pos)
		require.True(t, flags.Has(block.FlagBurning), "тик горения %d", i+1)
	}

	// Десятый тик горения: топливо выгорает, первая стадия обугливания
	wm.Step(1.0)
	id, _ := wm.BlockAt(pos)
	assert.Equal(t, block.CharredWood, id)
	flags, _ = wm.FlagsAt(pos)
	assert.False(t, flags.Has(block.FlagBurning))
	assert.True(t, flags.Has(block.FlagCharred))

	// Следующий тик: дотлевание до пепла
	wm.Step(1.0)
	id, _ = wm.BlockAt(pos)
	assert.Equal(t, block.Ash, id)

	// Стадий больше нет: горение вокселя засыпает
	wm.Step(1.0)
	wm.Step(1.0)
	_, idx := Locate(pos)
	assert.False(t, chunk.IsActive(domain.Combustion, idx))
}

func TestStepBurningHeatsNeighbors(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1})
	loadSkyChunk(t, wm, 0, 0)

	pos := vec.Vec3{X: 8, Y: skyChunkY*16 + 8, Z: 8}
	placeBlock(t, wm, pos, block.Wood)
	require.NoError(t, wm.IgniteAt(pos, 1.0))
	wm.Step(1.0)

	for i := 0; i < 4; i++ {
		wm.Step(1.0)
	}

	// Горящий воксель разогрет и помечен Hot
	temp, err := wm.TemperatureAt(pos)
	require.NoError(t, err)
	assert.Greater(t, temp, thermal.HotThreshold)
	flags, _ := wm.FlagsAt(pos)
	assert.True(t, flags.Has(block.FlagHot))

	// Сосед получает долю тепловыделения
	neighbor := vec.Vec3{X: 9, Y: pos.Y, Z: 8}
	ntemp, err := wm.TemperatureAt(neighbor)
	require.NoError(t, err)
	assert.Greater(t, ntemp, 30.0)
}

func TestStepFireSpreadsToAdjacentWood(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1})
	loadSkyChunk(t, wm, 0, 0)

	a := vec.Vec3{X: 6, Y: skyChunkY*16 + 6, Z: 6}
	b := vec.Vec3{X: 7, Y: a.Y, Z: 6}
	require.NoError(t, wm.SetBlockAt(a, block.Wood))
	require.NoError(t, wm.SetBlockAt(b, block.Wood))
	wm.Step(1.0)

	require.NoError(t, wm.IgniteAt(a, 1.0))

	spread := false
	for i := 0; i < 15 && !spread; i++ {
		wm.Step(1.0)
		flags, err := wm.FlagsAt(b)
		require.NoError(t, err)
		if flags.Has(block.FlagBurning) || flags.Has(block.FlagCharred) {
			spread = true
		}
	}
	assert.True(t, spread, "огонь не перекинулся на соседнее дерево")
}

func TestStepSoakedExtinguishesWithoutChar(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1})
	loadSkyChunk(t, wm, 0, 0)

	pos := vec.Vec3{X: 3, Y: skyChunkY*16 + 3, Z: 12}
	placeBlock(t, wm, pos, block.Wood)
	require.NoError(t, wm.IgniteAt(pos, 1.0))
	wm.Step(1.0)
	wm.Step(1.0) // пара тиков горения

	require.NoError(t, wm.SoakAt(pos, 0.95))
	wm.Step(1.0) // влажность применяется, флаг Soaked
	flags, _ := wm.FlagsAt(pos)
	require.True(t, flags.Has(block.FlagSoaked))

	wm.Step(1.0) // реакция тушения

	flags, _ = wm.FlagsAt(pos)
	assert.False(t, flags.Has(block.FlagBurning))
	// Потушен влагой, не выгорел: блок цел
	id, _ := wm.BlockAt(pos)
	assert.Equal(t, block.Wood, id)
	assert.False(t, flags.Has(block.FlagCharred))
}

func TestStepActiveSetConverges(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1})
	chunk := loadSkyChunk(t, wm, 0, 0)

	pos := vec.Vec3{X: 10, Y: skyChunkY*16 + 10, Z: 10}
	require.NoError(t, wm.SetTempAt(pos, 40.0))
	wm.Step(1.0)
	require.Greater(t, chunk.ActiveCount(domain.Thermal), 0)

	for i := 0; i < 120; i++ {
		wm.Step(1.0)
	}

	// Возмущение рассосалось: активный набор пуст, температура у фона
	assert.Equal(t, 0, chunk.ActiveCount(domain.Thermal))
	temp, err := wm.TemperatureAt(pos)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, temp, 1.5)
}

func TestStepCrossChunkHeatFlux(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1})
	loadSkyChunk(t, wm, 0, 0)
	loadSkyChunk(t, wm, 1, 0)

	// Воксель на восточной грани чанка (0,4,0)
	pos := vec.Vec3{X: 15, Y: skyChunkY*16 + 8, Z: 8}
	across := vec.Vec3{X: 16, Y: pos.Y, Z: 8}

	require.NoError(t, wm.SetTempAt(pos, 400.0))
	for i := 0; i < 6; i++ {
		wm.Step(1.0)
	}

	// Тепло ушло через грань в соседний чанк
	temp, err := wm.TemperatureAt(across)
	require.NoError(t, err)
	assert.Greater(t, temp, 20.5)
}

func TestStepConcurrentWithLoadChunk(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1})
	loadSkyChunk(t, wm, 0, 0)

	pos := vec.Vec3{X: 8, Y: skyChunkY*16 + 8, Z: 8}
	placeBlock(t, wm, pos, block.Wood)
	require.NoError(t, wm.IgniteAt(pos, 1.0))

	// Чанки подгружаются с другой горутины прямо во время тиков,
	// как это делает REST-обработчик действий
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 40; i++ {
			cc := vec.Vec3{X: i % 5, Y: skyChunkY, Z: i / 5}
			if _, err := wm.LoadChunk(cc); err != nil {
				t.Errorf("загрузка чанка %v: %v", cc, err)
				return
			}
		}
	}()

	for i := 0; i < 40; i++ {
		wm.Step(1.0)
	}
	<-done

	flags, err := wm.FlagsAt(pos)
	require.NoError(t, err)
	assert.True(t, flags.Has(block.FlagCharred))
	assert.Equal(t, 40, wm.ChunkCount())
}

func TestStepEdgeVoxelWokenByNeighborFlux(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1})
	cold := loadSkyChunk(t, wm, 0, 0)
	loadSkyChunk(t, wm, 1, 0)

	// Горячий воксель у западной грани чанка (1,4,0): его сосед через
	// грань лежит в чанке (0,4,0) и спит на дефолтной температуре
	hot := vec.Vec3{X: 16, Y: skyChunkY*16 + 8, Z: 8}
	edge := vec.Vec3{X: 15, Y: hot.Y, Z: 8}
	_, edgeIdx := Locate(edge)

	require.NoError(t, wm.SetTempAt(hot, 400.0))
	wm.Step(1.0)
	require.False(t, cold.IsActive(domain.Thermal, edgeIdx))

	// Входящий поток тепла будит уснувший краевой воксель
	wm.Step(1.0)
	wm.Step(1.0)
	assert.True(t, cold.IsActive(domain.Thermal, edgeIdx))
	temp, err := wm.TemperatureAt(edge)
	require.NoError(t, err)
	assert.Greater(t, temp, 20.5)
}

func TestStepCommandToUnloadedChunkDropped(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1})
	loadSkyChunk(t, wm, 0, 0)

	// Горящий воксель на грани: доли тепла соседям уходят в
	// незагруженный чанк и молча отбрасываются
	pos := vec.Vec3{X: 15, Y: skyChunkY*16 + 8, Z: 15}
	placeBlock(t, wm, pos, block.Wood)
	require.NoError(t, wm.IgniteAt(pos, 1.0))

	for i := 0; i < 5; i++ {
		wm.Step(1.0)
	}
	flags, err := wm.FlagsAt(pos)
	require.NoError(t, err)
	assert.True(t, flags.Has(block.FlagBurning))
	assert.Equal(t, 1, wm.ChunkCount())
}

// memPersister хранилище журналов в памяти для тестов
type memPersister struct {
	mu    sync.Mutex
	saved map[vec.Vec3][]domain.ChangeOp
}

func newMemPersister() *memPersister {
	return &memPersister{saved: make(map[vec.Vec3][]domain.ChangeOp)}
}

func (p *memPersister) SaveChanges(coords vec.Vec3, ops []domain.ChangeOp) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved[coords] = append(p.saved[coords], ops...)
	return nil
}

func (p *memPersister) LoadChanges(coords vec.Vec3) ([]domain.ChangeOp, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved[coords], nil
}

func TestStepOverflowForcesFlush(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1, DiffLimit: 4})
	p := newMemPersister()
	wm.SetPersister(p)
	chunk := loadSkyChunk(t, wm, 0, 0)

	pos := vec.Vec3{X: 4, Y: skyChunkY*16 + 4, Z: 4}
	placeBlock(t, wm, pos, block.Wood)
	require.NoError(t, wm.IgniteAt(pos, 1.0))
	for i := 0; i < 3; i++ {
		wm.Step(1.0)
	}

	// Журнал сбрасывался принудительно при переполнении
	p.mu.Lock()
	saved := len(p.saved[chunk.Coords])
	p.mu.Unlock()
	assert.Greater(t, saved, 0)
	assert.False(t, chunk.Overflowed())
}

func TestLoadChunkReplaysPersistedLog(t *testing.T) {
	p := newMemPersister()

	wm := newTestWorld(t, ManagerOptions{Seed: 7})
	wm.SetPersister(p)
	loadSkyChunk(t, wm, 0, 0)

	pos := vec.Vec3{X: 2, Y: skyChunkY*16 + 2, Z: 2}
	placeBlock(t, wm, pos, block.Stone)
	require.NoError(t, wm.SetTempAt(pos, 500.0))
	wm.Step(1.0)

	flushed, err := wm.FlushChanges()
	require.NoError(t, err)
	require.Greater(t, flushed, 0)

	// Второй узел с тем же сидом поднимает чанк из журнала
	wm2 := newTestWorld(t, ManagerOptions{Seed: 7})
	wm2.SetPersister(p)
	loadSkyChunk(t, wm2, 0, 0)

	id, err := wm2.BlockAt(pos)
	require.NoError(t, err)
	assert.Equal(t, block.Stone, id)
	temp, err := wm2.TemperatureAt(pos)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, temp, 30.0)

	// Накат журнала не переотправляется при следующем flush
	c2, _ := wm2.GetChunk(vec.Vec3{X: 0, Y: skyChunkY, Z: 0})
	assert.Equal(t, 0, c2.ChangeCount())
}

func TestUnloadChunkFlushes(t *testing.T) {
	wm := newTestWorld(t, ManagerOptions{Seed: 1})
	p := newMemPersister()
	wm.SetPersister(p)
	chunk := loadSkyChunk(t, wm, 0, 0)

	pos := vec.Vec3{X: 1, Y: skyChunkY*16 + 1, Z: 1}
	placeBlock(t, wm, pos, block.Stone)

	require.NoError(t, wm.UnloadChunk(chunk.Coords))
	assert.Equal(t, 0, wm.ChunkCount())

	p.mu.Lock()
	saved := len(p.saved[chunk.Coords])
	p.mu.Unlock()
	assert.Greater(t, saved, 0)

	err := wm.SubmitAction(chunk.Coords, domain.SetBlock{Idx: 0, Block: block.Stone})
	assert.ErrorIs(t, err, ErrChunkNotLoaded)
}
