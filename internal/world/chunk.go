package world

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// Ошибки мира
var (
	// ErrIndexOutOfRange индекс вокселя вне чанка
	ErrIndexOutOfRange = errors.New("индекс вокселя вне чанка")
	// ErrStateAllocation лимит доменных переопределений чанка исчерпан
	ErrStateAllocation = errors.New("не удалось выделить доменное состояние")
	// ErrDiffOverflow журнал изменений чанка превысил лимит
	ErrDiffOverflow = errors.New("журнал изменений чанка переполнен")
	// ErrChunkNotLoaded операция над незагруженным чанком
	ErrChunkNotLoaded = errors.New("чанк не загружен")
)

// ChunkSize длина ребра чанка в вокселях
const ChunkSize = domain.Size

// ChunkVolume количество вокселей в чанке
const ChunkVolume = domain.Volume

// Chunk представляет участок мира размером 16x16x16 вокселей.
// Плотные массивы blocks/flags/variants индексируются линейным
// индексом domain.Idx (порядок Y-Z-X). Доменные состояния лежат
// в хранилищах доменов, активные наборы управляют частичным обновлением.
//
// Запись в чанк идёт только через Commit и ApplyChangeOps: один
// писатель на чанк за тик. Конкурентные чтения защищены mu.
type Chunk struct {
	Coords vec.Vec3 // Координаты чанка в сетке чанков

	blocks   [ChunkVolume]block.ID
	flags    [ChunkVolume]block.Flags
	variants [ChunkVolume]uint8

	stores map[domain.ID]domain.Store
	active map[domain.ID]map[int]struct{}

	// Журнал изменений с последнего flush, append-only
	changes []domain.ChangeOp
	// Воксели, затронутые с последнего flush
	dirty map[int]struct{}

	needsRemesh bool
	overflowed  bool
	diffLimit   int

	// Команды, адресованные этому чанку извне (соседи, внешние действия).
	// Вливаются в начало следующего Commit.
	inbox   []domain.Command
	inboxMu sync.Mutex

	reg *block.Registry
	mu  sync.RWMutex
}

// NewChunk создаёт пустой чанк с хранилищами всех доменов
func NewChunk(coords vec.Vec3, reg *block.Registry, domains *domain.Registry, maxOverrides, diffLimit int) *Chunk {
	c := &Chunk{
		Coords:    coords,
		stores:    make(map[domain.ID]domain.Store, domains.Len()),
		active:    make(map[domain.ID]map[int]struct{}, domains.Len()),
		dirty:     make(map[int]struct{}),
		diffLimit: diffLimit,
		reg:       reg,
	}
	for _, d := range domains.Ordered() {
		c.stores[d.ID()] = d.NewStore(maxOverrides)
		c.active[d.ID()] = make(map[int]struct{})
	}
	return c
}

// Block возвращает тип блока вокселя
func (c *Chunk) Block(idx int) (block.ID, error) {
	if !domain.InBounds(idx) {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[idx], nil
}

// Flags возвращает маску состояний вокселя
func (c *Chunk) Flags(idx int) (block.Flags, error) {
	if !domain.InBounds(idx) {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.flags[idx], nil
}

// Variant возвращает вариант вокселя
func (c *Chunk) Variant(idx int) (uint8, error) {
	if !domain.InBounds(idx) {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.variants[idx], nil
}

// Value возвращает доменное переопределение вокселя
func (c *Chunk) Value(d domain.ID, idx int) (domain.Value, bool, error) {
	if !domain.InBounds(idx) {
		return domain.Value{}, false, fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.stores[d]
	if !ok {
		return domain.Value{}, false, nil
	}
	v, present := st.Get(idx)
	return v, present, nil
}

// ActiveCount количество активных вокселей домена
func (c *Chunk) ActiveCount(d domain.ID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.active[d])
}

// ActiveIndices отсортированные активные индексы домена
func (c *Chunk) ActiveIndices(d domain.ID) []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedIndices(c.active[d])
}

// IsActive проверяет активность вокселя в домене
func (c *Chunk) IsActive(d domain.ID, idx int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.active[d][idx]
	return ok
}

// NeedsRemesh сообщает, менялась ли геометрия чанка с последнего сброса
func (c *Chunk) NeedsRemesh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.needsRemesh
}

// ClearRemesh сбрасывает признак перестроения меша
func (c *Chunk) ClearRemesh() {
	c.mu.Lock()
	c.needsRemesh = false
	c.mu.Unlock()
}

// Overflowed сообщает, превысил ли журнал изменений лимит
func (c *Chunk) Overflowed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overflowed
}

// ChangeCount размер журнала изменений с последнего flush
func (c *Chunk) ChangeCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.changes)
}

// PendingChanges копия журнала изменений без его очистки
func (c *Chunk) PendingChanges() []domain.ChangeOp {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.ChangeOp, len(c.changes))
	copy(out, c.changes)
	return out
}

// DrainChanges забирает журнал изменений и очищает его вместе
// с грязным набором. Вызывается только между тиками.
func (c *Chunk) DrainChanges() []domain.ChangeOp {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.changes
	c.changes = nil
	c.dirty = make(map[int]struct{})
	c.overflowed = false
	return out
}

// DirtyCount количество вокселей, затронутых с последнего flush
func (c *Chunk) DirtyCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.dirty)
}

// EnqueueInbox добавляет команды во входную очередь чанка.
// Безопасно из любой горутины; команды применятся на следующем Commit.
func (c *Chunk) EnqueueInbox(cmds ...domain.Command) {
	if len(cmds) == 0 {
		return
	}
	c.inboxMu.Lock()
	c.inbox = append(c.inbox, cmds...)
	c.inboxMu.Unlock()
}

// drainInbox забирает накопленные входящие команды
func (c *Chunk) drainInbox() []domain.Command {
	c.inboxMu.Lock()
	out := c.inbox
	c.inbox = nil
	c.inboxMu.Unlock()
	return out
}

// setBlockRaw прямая запись блока без журнала.
// Только для генерации и загрузки чанка, до включения в симуляцию.
func (c *Chunk) setBlockRaw(idx int, id block.ID) {
	c.blocks[idx] = id
}

// activate добавляет воксель в активный набор домена
func (c *Chunk) activate(d domain.ID, idx int) {
	set, ok := c.active[d]
	if !ok {
		return
	}
	set[idx] = struct{}{}
}

// deactivate убирает воксель из активного набора домена
func (c *Chunk) deactivate(d domain.ID, idx int) {
	if set, ok := c.active[d]; ok {
		delete(set, idx)
	}
}

// appendChange дописывает запись в журнал и помечает воксель грязным
func (c *Chunk) appendChange(op domain.ChangeOp) {
	c.changes = append(c.changes, op)
	c.dirty[int(op.Idx)] = struct{}{}
	if op.NeedsRemesh() {
		c.needsRemesh = true
	}
	if c.diffLimit > 0 && len(c.changes) > c.diffLimit && !c.overflowed {
		c.overflowed = true
	}
}

// Snapshot создаёт неизменяемый срез чанка для стадий чтения.
// Соседи привязываются отдельно через linkNeighbor.
func (c *Chunk) Snapshot() *ChunkView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := &ChunkView{
		coords: c.Coords,
		reg:    c.reg,
		values: make(map[domain.ID]domain.Store, len(c.stores)),
		active: make(map[domain.ID][]int, len(c.active)),
	}
	v.blocks = c.blocks
	v.flags = c.flags
	v.variants = c.variants
	for id, st := range c.stores {
		v.values[id] = st.Clone()
	}
	for id, set := range c.active {
		v.active[id] = sortedIndices(set)
	}
	return v
}

func sortedIndices(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
