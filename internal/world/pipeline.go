package world

import (
	"sort"
	"sync"
	"time"

	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// routedCommand команда, адресованная другому чанку.
// Источник нужен для устойчивого порядка слияния.
type routedCommand struct {
	source vec.Vec3
	target vec.Vec3
	cmd    domain.Command
}

// chunkResult команды одного чанка за стадии Tick/Reactions
type chunkResult struct {
	coords vec.Vec3
	local  []domain.Command
	routed []routedCommand
}

// Step выполняет один тик симуляции.
//
// Все загруженные чанки замораживаются в срезы и раздаются воркерам:
// каждый чанк независимо проходит FieldUpdate, Tick и EmitReactions
// по состоянию предыдущего тика. На барьере команды для чужих чанков
// раскладываются по адресатам в порядке координат источника, после
// чего воркеры выполняют Commit, по одному писателю на чанк.
// Переполненные журналы принудительно сбрасываются между тиками.
func (wm *WorldManager) Step(dt float64) {
	started := time.Now()

	// Указатели чанков фиксируются под блокировкой: LoadChunk с других
	// горутин (REST, SyncConsumer) меняет карту прямо во время тика
	wm.mu.Lock()
	coords := wm.sortedCoordsLocked()
	chunks := make([]*Chunk, len(coords))
	views := make(map[vec.Vec3]*ChunkView, len(coords))
	for i, cc := range coords {
		chunks[i] = wm.chunks[cc]
		views[cc] = chunks[i].Snapshot()
	}
	for cc, v := range views {
		for f := domain.Face(1); f <= domain.FaceCount; f++ {
			dx, dy, dz := f.Offset()
			if n, ok := views[vec.Vec3{X: cc.X + dx, Y: cc.Y + dy, Z: cc.Z + dz}]; ok {
				v.linkNeighbor(f, n)
			}
		}
	}
	wm.mu.Unlock()

	// Стадии чтения: поля и реакции по срезам, параллельно по чанкам
	results := make([]chunkResult, len(coords))
	wm.runParallel(len(coords), func(i int) {
		results[i] = wm.simulateChunk(views[coords[i]], dt)
	})

	// Барьер: маршрутизация команд между чанками.
	// Порядок обхода источников фиксирован, слияние воспроизводимо.
	pending := make(map[vec.Vec3][]domain.Command, len(coords))
	commandCount := 0
	for _, res := range results {
		pending[res.coords] = append(pending[res.coords], res.local...)
		commandCount += len(res.local)
		for _, rc := range res.routed {
			if _, ok := views[rc.target]; !ok {
				logging.Debug("Тик %d: команда %s в незагруженный чанк %v отброшена",
					wm.tick, rc.cmd.Kind(), rc.target)
				continue
			}
			pending[rc.target] = append(pending[rc.target], rc.cmd)
			commandCount++
		}
	}

	// Commit: один писатель на чанк
	var applied, dropped int64
	var statsMu sync.Mutex
	wm.runParallel(len(coords), func(i int) {
		stats := chunks[i].Commit(pending[coords[i]], wm.domains)
		statsMu.Lock()
		applied += int64(stats.Applied)
		dropped += int64(stats.Dropped)
		statsMu.Unlock()
	})

	// Post: метрики, события, принудительный flush переполненных журналов
	wm.mu.Lock()
	wm.tick++
	tick := wm.tick
	for _, c := range chunks {
		if c.Overflowed() {
			logging.Warn("Чанк %v: журнал изменений переполнен, принудительный flush", c.Coords)
			if err := wm.flushChunkLocked(c); err != nil {
				logging.Error("Принудительный flush чанка %v: %v", c.Coords, err)
			}
		}
	}
	wm.mu.Unlock()

	wm.observeTick(tick, len(coords), commandCount, int(applied), int(dropped), time.Since(started))
}

// simulateChunk стадии чтения одного чанка: полевой расчёт,
// пошаговая логика доменов и эмиссия реакций
func (wm *WorldManager) simulateChunk(v *ChunkView, dt float64) chunkResult {
	res := chunkResult{coords: v.coords}
	scratch := domain.NewScratch()

	for _, d := range wm.domains.Ordered() {
		d.FieldUpdate(v, scratch, dt)
	}

	for _, d := range wm.domains.Ordered() {
		emits := d.Tick(v, scratch, dt)
		emits = append(emits, d.EmitReactions(v, scratch)...)
		for _, e := range emits {
			if e.Face == domain.FaceNone {
				res.local = append(res.local, e.Cmd)
				continue
			}
			dx, dy, dz := e.Face.Offset()
			res.routed = append(res.routed, routedCommand{
				source: v.coords,
				target: vec.Vec3{X: v.coords.X + dx, Y: v.coords.Y + dy, Z: v.coords.Z + dz},
				cmd:    e.Cmd,
			})
		}
	}

	sort.SliceStable(res.routed, func(i, j int) bool {
		return res.routed[i].target.Less(res.routed[j].target)
	})
	return res
}

// runParallel раздаёт n задач пулу воркеров менеджера
func (wm *WorldManager) runParallel(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := wm.opts.Workers
	if workers > n {
		workers = n
	}

	jobs := make(chan int, n)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}
