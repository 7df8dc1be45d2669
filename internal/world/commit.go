package world

import (
	"fmt"
	"sort"

	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
	"github.com/dyzdyz010/voxworld/internal/world/domains/moisture"
	"github.com/dyzdyz010/voxworld/internal/world/domains/thermal"
)

// CommitStats итоги применения команд одного тика к чанку
type CommitStats struct {
	Applied int // Команды, изменившие состояние
	NoOps   int // Идемпотентные и пустые команды
	Dropped int // Команды, проигравшие конфликт
	Skipped int // Команды с некорректным индексом или без состояния
}

// commitCtx транзитное состояние одного Commit
type commitCtx struct {
	touched map[domain.ID]map[int]struct{}
	stats   CommitStats
}

func (ctx *commitCtx) touch(d domain.ID, idx int) {
	set, ok := ctx.touched[d]
	if !ok {
		set = make(map[int]struct{})
		ctx.touched[d] = set
	}
	set[idx] = struct{}{}
}

// Commit применяет команды тика к чанку. Единственная точка записи:
// вызывается одной горутиной на чанк, после барьера стадии Reactions.
//
// Сначала вливается входная очередь чанка, затем команды группируются
// по вокселю и упорядочиваются по рангу вида. Порядок обхода вокселей
// возрастающий, поэтому результат не зависит от порядка поступления
// команд. Конфликты решаются до применения:
//
//   - SetBlock отменяет флаговые и вариантные команды того же тика,
//     из нескольких SetBlock побеждает последний;
//   - Extinguish отменяет Ignite и AddHeat того же тика;
//   - из одноимённых абсолютных записей (SetTemp, SetMoisture,
//     SetVariant) побеждает последняя;
//   - аддитивные команды (AddHeat, AddMoisture) не конфликтуют
//     и складываются.
//
// Каждая отброшенная команда фиксируется в журнале записью OpConflict.
func (c *Chunk) Commit(cmds []domain.Command, doms *domain.Registry) CommitStats {
	merged := c.drainInbox()
	merged = append(merged, cmds...)

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := &commitCtx{touched: make(map[domain.ID]map[int]struct{})}

	byIdx := make(map[int][]domain.Command)
	for _, cmd := range merged {
		idx := cmd.Index()
		if !domain.InBounds(idx) {
			logging.Warn("Commit %v: команда %s с индексом %d вне чанка", c.Coords, cmd.Kind(), idx)
			ctx.stats.Skipped++
			continue
		}
		byIdx[idx] = append(byIdx[idx], cmd)
	}

	indices := make([]int, 0, len(byIdx))
	for idx := range byIdx {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		resolved, notes := resolveConflicts(idx, byIdx[idx])
		for _, note := range notes {
			c.appendChange(note)
			ctx.stats.Dropped++
		}
		for _, cmd := range resolved {
			c.applyCommand(ctx, idx, cmd)
		}
	}

	for d, set := range ctx.touched {
		for idx := range set {
			c.activate(d, idx)
		}
	}
	c.pruneActive(doms)

	return ctx.stats
}

// resolveConflicts упорядочивает команды одного вокселя по рангу
// и отбрасывает проигравшие конфликт. Возвращает команды к применению
// и журнальные заметки об отброшенных.
func resolveConflicts(idx int, cmds []domain.Command) ([]domain.Command, []domain.ChangeOp) {
	if len(cmds) == 1 {
		return cmds, nil
	}

	sort.SliceStable(cmds, func(i, j int) bool {
		return cmds[i].Kind().Rank() < cmds[j].Kind().Rank()
	})

	hasExtinguish := false
	lastOfKind := make(map[domain.CommandKind]int)
	for i, cmd := range cmds {
		if cmd.Kind() == domain.KindExtinguish {
			hasExtinguish = true
		}
		lastOfKind[cmd.Kind()] = i
	}
	_, hasSetBlock := lastOfKind[domain.KindSetBlock]

	note := func(dropped, winner domain.CommandKind) domain.ChangeOp {
		return domain.ChangeOp{
			Idx:     uint16(idx),
			Kind:    domain.OpConflict,
			Dropped: dropped,
			Winner:  winner,
		}
	}

	var kept []domain.Command
	var notes []domain.ChangeOp
	extinguishKept := false

	for i, cmd := range cmds {
		kind := cmd.Kind()
		switch kind {
		case domain.KindSetBlock, domain.KindSetTemp, domain.KindSetMoisture, domain.KindSetVariant:
			// Последняя одноимённая абсолютная запись побеждает
			if lastOfKind[kind] != i {
				notes = append(notes, note(kind, kind))
				continue
			}
			if kind == domain.KindSetVariant && hasSetBlock {
				notes = append(notes, note(kind, domain.KindSetBlock))
				continue
			}
		case domain.KindAddFlag, domain.KindRemoveFlag,
			domain.KindIncrementVariant, domain.KindDecrementVariant:
			// Смена блока обесценивает флаги и варианты того же тика
			if hasSetBlock {
				notes = append(notes, note(kind, domain.KindSetBlock))
				continue
			}
		case domain.KindIgnite, domain.KindAddHeat:
			if hasExtinguish {
				notes = append(notes, note(kind, domain.KindExtinguish))
				continue
			}
		case domain.KindExtinguish:
			// Повторные тушения идемпотентны
			if extinguishKept {
				continue
			}
			extinguishKept = true
		}
		kept = append(kept, cmd)
	}

	return kept, notes
}

// applyCommand применяет одну команду. Вызывается с удержанным mu.
func (c *Chunk) applyCommand(ctx *commitCtx, idx int, cmd domain.Command) {
	switch cmd := cmd.(type) {
	case domain.SetBlock:
		c.applySetBlock(ctx, idx, cmd.Block)
	case domain.AddFlag:
		c.applyFlag(ctx, idx, cmd.Flag, true)
	case domain.RemoveFlag:
		c.applyFlag(ctx, idx, cmd.Flag, false)
	case domain.SetVariant:
		c.applyVariant(ctx, idx, cmd.Variant)
	case domain.IncrementVariant:
		if c.variants[idx] == 255 {
			ctx.stats.NoOps++
			return
		}
		c.applyVariant(ctx, idx, c.variants[idx]+1)
	case domain.DecrementVariant:
		if c.variants[idx] == 0 {
			ctx.stats.NoOps++
			return
		}
		c.applyVariant(ctx, idx, c.variants[idx]-1)
	case domain.SetTemp:
		c.setTemperature(ctx, idx, cmd.Temp)
	case domain.AddHeat:
		def := c.reg.MustGet(c.blocks[idx])
		heatCap := def.HeatCapacity
		if heatCap <= 0 {
			heatCap = 1
		}
		c.setTemperature(ctx, idx, c.temperature(idx)+cmd.Heat/heatCap)
	case domain.SetMoisture:
		c.setMoisture(ctx, idx, cmd.Moisture)
	case domain.AddMoisture:
		c.setMoisture(ctx, idx, c.moisture(idx)+cmd.Delta)
	case domain.Ignite:
		c.applyIgnite(ctx, idx, cmd.Power)
	case domain.Extinguish:
		c.applyExtinguish(ctx, idx, cmd.Reason)
	case domain.ConsumeFuel:
		c.applyConsumeFuel(ctx, idx, cmd.Amount)
	default:
		logging.Warn("Commit %v: неизвестная команда %s", c.Coords, cmd.Kind())
		ctx.stats.Skipped++
	}
}

// applySetBlock заменяет тип блока. Горение на вокселе прекращается:
// состояние горения и флаг Burning относятся к прежнему блоку.
func (c *Chunk) applySetBlock(ctx *commitCtx, idx int, id block.ID) {
	old := c.blocks[idx]
	if old == id {
		ctx.stats.NoOps++
		return
	}

	if c.flags[idx].Has(block.FlagBurning) {
		c.applyFlag(ctx, idx, block.FlagBurning, false)
		c.removeDomainState(ctx, domain.Combustion, idx)
	}

	c.blocks[idx] = id
	c.appendChange(domain.ChangeOp{Idx: uint16(idx), Kind: domain.OpSetBlock, Block: id})
	ctx.stats.Applied++

	// Новый блок меняет дефолты полей: воксель и соседи пересчитываются
	ctx.touch(domain.Thermal, idx)
	ctx.touch(domain.MoistureField, idx)
	for _, n := range domain.Neighbors(idx) {
		if n.Face == domain.FaceNone {
			ctx.touch(domain.Thermal, n.Idx)
		}
	}
}

func (c *Chunk) applyFlag(ctx *commitCtx, idx int, flag block.Flags, set bool) {
	if set {
		if c.flags[idx].Has(flag) {
			ctx.stats.NoOps++
			return
		}
		c.flags[idx] = c.flags[idx].With(flag)
		c.appendChange(domain.ChangeOp{Idx: uint16(idx), Kind: domain.OpAddFlag, Flag: flag})
	} else {
		if !c.flags[idx].Has(flag) {
			ctx.stats.NoOps++
			return
		}
		c.flags[idx] = c.flags[idx].Without(flag)
		c.appendChange(domain.ChangeOp{Idx: uint16(idx), Kind: domain.OpRemoveFlag, Flag: flag})
	}
	ctx.stats.Applied++
}

func (c *Chunk) applyVariant(ctx *commitCtx, idx int, v uint8) {
	if c.variants[idx] == v {
		ctx.stats.NoOps++
		return
	}
	c.variants[idx] = v
	c.appendChange(domain.ChangeOp{Idx: uint16(idx), Kind: domain.OpSetVariant, Variant: v})
	ctx.stats.Applied++
}

// temperature эффективная температура вокселя (mu удержан)
func (c *Chunk) temperature(idx int) float64 {
	if v, ok := c.stores[domain.Thermal].Get(idx); ok {
		return float64(v.A)
	}
	return c.reg.MustGet(c.blocks[idx]).Temperature
}

// moisture эффективная влажность вокселя (mu удержан)
func (c *Chunk) moisture(idx int) float64 {
	if v, ok := c.stores[domain.MoistureField].Get(idx); ok {
		return float64(v.A)
	}
	return c.reg.MustGet(c.blocks[idx]).Humidity
}

// setTemperature записывает температуру вокселя.
// Температура у дефолта блока снимает переопределение, чтобы плотное
// хранилище не росло. Флаги Hot/Cold поддерживаются здесь же.
func (c *Chunk) setTemperature(ctx *commitCtx, idx int, t float64) {
	def := c.reg.MustGet(c.blocks[idx])
	st := c.stores[domain.Thermal]

	diff := t - def.Temperature
	if diff < thermal.TempEpsilon && diff > -thermal.TempEpsilon {
		if _, had := st.Get(idx); had {
			st.Remove(idx)
			c.appendChange(domain.ChangeOp{
				Idx: uint16(idx), Kind: domain.OpDomainState,
				Domain: domain.Thermal, Present: false,
			})
			ctx.stats.Applied++
		} else {
			ctx.stats.NoOps++
		}
	} else {
		if err := st.Set(idx, domain.Value{A: float32(t)}); err != nil {
			logging.Warn("Commit %v: термика idx=%d: %v", c.Coords, idx, err)
			c.deactivate(domain.Thermal, idx)
			ctx.stats.Skipped++
			return
		}
		c.appendChange(domain.ChangeOp{
			Idx: uint16(idx), Kind: domain.OpDomainState,
			Domain: domain.Thermal, Value: domain.Value{A: float32(t)}, Present: true,
		})
		ctx.stats.Applied++
	}

	c.applyDerivedFlag(ctx, idx, block.FlagHot, t > thermal.HotThreshold)
	c.applyDerivedFlag(ctx, idx, block.FlagCold, t < thermal.ColdThreshold)

	// Активация расползается на соседей: градиент двигает их поле
	ctx.touch(domain.Thermal, idx)
	for _, n := range domain.Neighbors(idx) {
		if n.Face == domain.FaceNone {
			ctx.touch(domain.Thermal, n.Idx)
		}
	}
}

// setMoisture записывает влажность вокселя с ограничением 0..1
// и поддержкой флагов Wet/Soaked
func (c *Chunk) setMoisture(ctx *commitCtx, idx int, m float64) {
	if m < 0 {
		m = 0
	} else if m > 1 {
		m = 1
	}

	def := c.reg.MustGet(c.blocks[idx])
	st := c.stores[domain.MoistureField]

	diff := m - def.Humidity
	if diff < moisture.Epsilon && diff > -moisture.Epsilon {
		if _, had := st.Get(idx); had {
			st.Remove(idx)
			c.appendChange(domain.ChangeOp{
				Idx: uint16(idx), Kind: domain.OpDomainState,
				Domain: domain.MoistureField, Present: false,
			})
			ctx.stats.Applied++
		} else {
			ctx.stats.NoOps++
		}
	} else {
		if err := st.Set(idx, domain.Value{A: float32(m)}); err != nil {
			logging.Warn("Commit %v: влага idx=%d: %v", c.Coords, idx, err)
			c.deactivate(domain.MoistureField, idx)
			ctx.stats.Skipped++
			return
		}
		c.appendChange(domain.ChangeOp{
			Idx: uint16(idx), Kind: domain.OpDomainState,
			Domain: domain.MoistureField, Value: domain.Value{A: float32(m)}, Present: true,
		})
		ctx.stats.Applied++
	}

	wf := moisture.FlagsFor(m)
	c.applyDerivedFlag(ctx, idx, block.FlagWet, wf.Has(block.FlagWet))
	c.applyDerivedFlag(ctx, idx, block.FlagSoaked, wf.Has(block.FlagSoaked))

	ctx.touch(domain.MoistureField, idx)
	// Пропитанный горящий воксель должен потухнуть
	if c.flags[idx].Has(block.FlagBurning) {
		ctx.touch(domain.Combustion, idx)
	}
}

// applyDerivedFlag приводит производный флаг к нужному состоянию
func (c *Chunk) applyDerivedFlag(ctx *commitCtx, idx int, flag block.Flags, want bool) {
	if c.flags[idx].Has(flag) == want {
		return
	}
	c.applyFlag(ctx, idx, flag, want)
}

// applyIgnite зажигает воспламеняемый воксель.
// Повторный поджиг горящего вокселя идемпотентен.
func (c *Chunk) applyIgnite(ctx *commitCtx, idx int, power float64) {
	if c.flags[idx].Has(block.FlagBurning) {
		ctx.stats.NoOps++
		return
	}
	def := c.reg.MustGet(c.blocks[idx])
	if !def.Flammable {
		logging.Debug("Commit %v: поджиг невоспламеняемого блока %s idx=%d", c.Coords, def.Name, idx)
		ctx.stats.NoOps++
		return
	}
	if power <= 0 {
		power = 1
	}

	state := domain.Value{A: float32(def.BurnEnergy), B: float32(power)}
	if err := c.stores[domain.Combustion].Set(idx, state); err != nil {
		logging.Warn("Commit %v: горение idx=%d: %v", c.Coords, idx, err)
		c.deactivate(domain.Combustion, idx)
		ctx.stats.Skipped++
		return
	}
	c.appendChange(domain.ChangeOp{
		Idx: uint16(idx), Kind: domain.OpDomainState,
		Domain: domain.Combustion, Value: state, Present: true,
	})
	ctx.stats.Applied++

	c.applyFlag(ctx, idx, block.FlagBurning, true)

	ctx.touch(domain.Combustion, idx)
	ctx.touch(domain.Thermal, idx)
	for _, n := range domain.Neighbors(idx) {
		if n.Face == domain.FaceNone {
			ctx.touch(domain.Thermal, n.Idx)
		}
	}
}

// applyExtinguish гасит горящий воксель. При выгорании топлива
// блок переходит на первую стадию обугливания, вариант хранит число
// оставшихся стадий, дотлевание ведёт домен горения.
func (c *Chunk) applyExtinguish(ctx *commitCtx, idx int, reason domain.ExtinguishReason) {
	if !c.flags[idx].Has(block.FlagBurning) {
		ctx.stats.NoOps++
		return
	}

	def := c.reg.MustGet(c.blocks[idx])

	c.applyFlag(ctx, idx, block.FlagBurning, false)
	c.removeDomainState(ctx, domain.Combustion, idx)

	if reason == domain.ReasonBurnedOut {
		if len(def.CharStages) > 0 {
			c.applySetBlock(ctx, idx, def.CharStages[0])
			c.applyVariant(ctx, idx, uint8(len(def.CharStages)-1))
		} else {
			// Выгорел без остатка
			c.applySetBlock(ctx, idx, block.Air)
			c.applyVariant(ctx, idx, 0)
		}
		c.applyFlag(ctx, idx, block.FlagCharred, true)
		ctx.touch(domain.Combustion, idx)
	}

	logging.Debug("Commit %v: воксель %d потушен (%s)", c.Coords, idx, reason)
}

// applyConsumeFuel списывает топливо горящего вокселя
func (c *Chunk) applyConsumeFuel(ctx *commitCtx, idx int, amount float64) {
	st := c.stores[domain.Combustion]
	v, ok := st.Get(idx)
	if !ok {
		ctx.stats.Skipped++
		return
	}
	v.A -= float32(amount)
	if v.A < 0 {
		v.A = 0
	}
	if err := st.Set(idx, v); err != nil {
		ctx.stats.Skipped++
		return
	}
	c.appendChange(domain.ChangeOp{
		Idx: uint16(idx), Kind: domain.OpDomainState,
		Domain: domain.Combustion, Value: v, Present: true,
	})
	ctx.stats.Applied++
}

// removeDomainState снимает доменное переопределение с журнальной записью
func (c *Chunk) removeDomainState(ctx *commitCtx, d domain.ID, idx int) {
	st, ok := c.stores[d]
	if !ok {
		return
	}
	if _, had := st.Get(idx); !had {
		return
	}
	st.Remove(idx)
	c.appendChange(domain.ChangeOp{
		Idx: uint16(idx), Kind: domain.OpDomainState,
		Domain: d, Present: false,
	})
	ctx.stats.Applied++
}

// pruneActive убирает из активных наборов воксели, которым по мнению
// домена больше нечего делать. Вызывается в конце Commit (mu удержан).
func (c *Chunk) pruneActive(doms *domain.Registry) {
	lv := liveView{c: c}
	for _, d := range doms.Ordered() {
		set := c.active[d.ID()]
		for _, idx := range sortedIndices(set) {
			if !d.KeepActive(lv, idx) {
				delete(set, idx)
			}
		}
	}
}

// ApplyChangeOps проигрывает журнал изменений на реплике чанка.
// Применение той же последовательности к тому же исходному состоянию
// даёт идентичный чанк. Записи OpConflict состояния не несут.
func (c *Chunk) ApplyChangeOps(ops []domain.ChangeOp) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, op := range ops {
		idx := int(op.Idx)
		if !domain.InBounds(idx) {
			return ErrIndexOutOfRange
		}
		switch op.Kind {
		case domain.OpSetBlock:
			c.blocks[idx] = op.Block
			c.needsRemesh = true
		case domain.OpAddFlag:
			c.flags[idx] = c.flags[idx].With(op.Flag)
		case domain.OpRemoveFlag:
			c.flags[idx] = c.flags[idx].Without(op.Flag)
		case domain.OpSetVariant:
			c.variants[idx] = op.Variant
			c.needsRemesh = true
		case domain.OpDomainState:
			st, ok := c.stores[op.Domain]
			if !ok {
				continue
			}
			if op.Present {
				if err := st.Set(idx, op.Value); err != nil {
					return fmt.Errorf("%w: домен %s idx=%d: %v", ErrStateAllocation, op.Domain, idx, err)
				}
			} else {
				st.Remove(idx)
			}
		case domain.OpConflict:
			// Заметка о конфликте, состояния не меняет
		}
	}
	return nil
}

// liveView представление живого чанка для прунинга активных наборов.
// Используется только внутри Commit с удержанным mu; соседние чанки
// недоступны и считаются незагруженными. Краевой воксель, уснувший
// при горячем соседнем чанке, будится на следующем тике входящим
// AddHeat от активного фронта соседа.
type liveView struct {
	c *Chunk
}

func (v liveView) Coords() vec.Vec3 { return v.c.Coords }

func (v liveView) Block(idx int) block.ID { return v.c.blocks[idx] }

func (v liveView) Def(idx int) *block.Def { return v.c.reg.MustGet(v.c.blocks[idx]) }

func (v liveView) Flags(idx int) block.Flags { return v.c.flags[idx] }

func (v liveView) Variant(idx int) uint8 { return v.c.variants[idx] }

func (v liveView) Value(d domain.ID, idx int) (domain.Value, bool) {
	st, ok := v.c.stores[d]
	if !ok {
		return domain.Value{}, false
	}
	return st.Get(idx)
}

func (v liveView) Active(d domain.ID) []int { return sortedIndices(v.c.active[d]) }

func (v liveView) Neighbor(f domain.Face) domain.View { return nil }
