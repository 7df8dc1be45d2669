package world

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dyzdyz010/voxworld/internal/eventbus"
	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// Persister долговременное хранилище журналов изменений чанков.
// Реализуется пакетом storage; мир знает только про журналы.
type Persister interface {
	SaveChanges(coords vec.Vec3, ops []domain.ChangeOp) error
	LoadChanges(coords vec.Vec3) ([]domain.ChangeOp, error)
}

// ManagerOptions параметры менеджера мира
type ManagerOptions struct {
	Seed         int64   // Сид генерации
	Workers      int     // Горутины стадий FieldUpdate/Reactions и Commit
	DiffLimit    int     // Лимит журнала изменений чанка
	MaxOverrides int     // Лимит sparse-переопределений на домен
	TickRate     int     // Тиков в секунду для Run
	EnvTemp      float64 // Температура среды, °C
}

// WorldManager управляет загруженными чанками и гоняет конвейер тика:
// ExternalActions -> FieldUpdate -> Reactions -> Commit -> Post.
// Стадии чтения работают по срезам предыдущего тика параллельно по
// чанкам; Commit пишет в каждый чанк ровно одной горутиной.
type WorldManager struct {
	mu     sync.RWMutex
	chunks map[vec.Vec3]*Chunk

	reg     *block.Registry
	domains *domain.Registry
	gen     *Generator
	opts    ManagerOptions

	tick uint64

	persister Persister
	bus       eventbus.EventBus
}

// NewWorldManager создаёт менеджер мира
func NewWorldManager(reg *block.Registry, domains *domain.Registry, opts ManagerOptions) *WorldManager {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.TickRate <= 0 {
		opts.TickRate = 20
	}
	if opts.DiffLimit <= 0 {
		opts.DiffLimit = 8192
	}

	return &WorldManager{
		chunks:  make(map[vec.Vec3]*Chunk),
		reg:     reg,
		domains: domains,
		gen:     NewGenerator(opts.Seed, reg),
		opts:    opts,
	}
}

// SetPersister подключает долговременное хранилище журналов
func (wm *WorldManager) SetPersister(p Persister) {
	wm.persister = p
}

// SetEventBus подключает шину событий мира
func (wm *WorldManager) SetEventBus(bus eventbus.EventBus) {
	wm.bus = bus
}

// Blocks реестр типов блоков
func (wm *WorldManager) Blocks() *block.Registry {
	return wm.reg
}

// Domains реестр доменов состояния
func (wm *WorldManager) Domains() *domain.Registry {
	return wm.domains
}

// Tick номер последнего завершённого тика
func (wm *WorldManager) Tick() uint64 {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.tick
}

// ChunkCount количество загруженных чанков
func (wm *WorldManager) ChunkCount() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return len(wm.chunks)
}

// GetChunk возвращает загруженный чанк
func (wm *WorldManager) GetChunk(coords vec.Vec3) (*Chunk, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	c, ok := wm.chunks[coords]
	return c, ok
}

// LoadChunk загружает чанк: генерация ландшафта, затем накат
// сохранённого журнала изменений поверх. Повторная загрузка
// возвращает уже загруженный чанк.
func (wm *WorldManager) LoadChunk(coords vec.Vec3) (*Chunk, error) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if c, ok := wm.chunks[coords]; ok {
		return c, nil
	}

	c := NewChunk(coords, wm.reg, wm.domains, wm.opts.MaxOverrides, wm.opts.DiffLimit)
	wm.gen.Generate(c)

	if wm.persister != nil {
		ops, err := wm.persister.LoadChanges(coords)
		if err != nil {
			return nil, fmt.Errorf("загрузка чанка %v: %w", coords, err)
		}
		if len(ops) > 0 {
			if err := c.ApplyChangeOps(ops); err != nil {
				return nil, fmt.Errorf("накат журнала чанка %v: %w", coords, err)
			}
			// Журнал наката не переотправляется при следующем flush
			c.DrainChanges()
			c.ClearRemesh()
		}
	}

	wm.chunks[coords] = c
	metricChunksLoaded.Inc()
	logging.Debug("Чанк %v загружен", coords)
	wm.publishChunkEvent(EventChunkLoaded, coords, 0)
	return c, nil
}

// UnloadChunk сбрасывает журнал чанка в хранилище и выгружает его
func (wm *WorldManager) UnloadChunk(coords vec.Vec3) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	c, ok := wm.chunks[coords]
	if !ok {
		return fmt.Errorf("%w: %v", ErrChunkNotLoaded, coords)
	}
	if err := wm.flushChunkLocked(c); err != nil {
		return err
	}
	delete(wm.chunks, coords)
	metricChunksLoaded.Dec()
	logging.Debug("Чанк %v выгружен", coords)
	return nil
}

// SubmitAction ставит команду во входную очередь чанка.
// Команда применится на Commit следующего тика.
func (wm *WorldManager) SubmitAction(coords vec.Vec3, cmd domain.Command) error {
	if !domain.InBounds(cmd.Index()) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, cmd.Index())
	}

	wm.mu.RLock()
	c, ok := wm.chunks[coords]
	wm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %v", ErrChunkNotLoaded, coords)
	}

	c.EnqueueInbox(cmd)
	metricCommands.WithLabelValues("external").Inc()
	return nil
}

// ApplyRemoteChanges накатывает журнал другого узла на реплику чанка.
// Журнал применяется напрямую, без команд и без повторной записи
// в локальный журнал изменений.
func (wm *WorldManager) ApplyRemoteChanges(coords vec.Vec3, ops []domain.ChangeOp) error {
	c, err := wm.LoadChunk(coords)
	if err != nil {
		return err
	}
	return c.ApplyChangeOps(ops)
}

// FlushChanges сбрасывает журналы всех чанков в хранилище.
// Вызывается только между тиками. Возвращает число сброшенных записей.
func (wm *WorldManager) FlushChanges() (int, error) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	total := 0
	for _, coords := range wm.sortedCoordsLocked() {
		c := wm.chunks[coords]
		n := c.ChangeCount()
		if n == 0 {
			continue
		}
		if err := wm.flushChunkLocked(c); err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// flushChunkLocked сбрасывает журнал одного чанка (mu удержан)
func (wm *WorldManager) flushChunkLocked(c *Chunk) error {
	ops := c.DrainChanges()
	if len(ops) == 0 {
		return nil
	}
	if wm.persister != nil {
		if err := wm.persister.SaveChanges(c.Coords, ops); err != nil {
			return fmt.Errorf("flush чанка %v: %w", c.Coords, err)
		}
	}
	metricFlushedOps.Add(float64(len(ops)))
	wm.publishChunkEvent(EventChunkFlushed, c.Coords, len(ops))
	return nil
}

// sortedCoordsLocked координаты загруженных чанков в устойчивом порядке
func (wm *WorldManager) sortedCoordsLocked() []vec.Vec3 {
	coords := make([]vec.Vec3, 0, len(wm.chunks))
	for cc := range wm.chunks {
		coords = append(coords, cc)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	return coords
}

// Run гоняет тики с частотой TickRate до отмены контекста
func (wm *WorldManager) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(wm.opts.TickRate)
	dt := interval.Seconds()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info("Симуляция запущена: %d тиков/с, %d воркеров", wm.opts.TickRate, wm.opts.Workers)

	for {
		select {
		case <-ctx.Done():
			logging.Info("Симуляция остановлена")
			return ctx.Err()
		case <-ticker.C:
			wm.Step(dt)
		}
	}
}
