package sync

import (
	"context"
	"sync"
	"time"

	"github.com/dyzdyz010/voxworld/internal/eventbus"
	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/google/uuid"
)

// EventTypeSyncBatch тип конверта с пакетом изменений на шине
const EventTypeSyncBatch = "sync.batch"

// BatchManager накапливает пакеты изменений и периодически отправляет
// их единым сжатым сообщением через EventBus. Один экземпляр на узел.
type BatchManager struct {
	mu       sync.Mutex
	buf      []Change
	capacity int

	flushEvery time.Duration
	bus        eventbus.EventBus
	source     string // идентификатор узла
	compressor DeltaCompressor

	quit chan struct{}
}

// NewBatchManager создаёт менеджер с лимитом буфера и интервалом отправки
func NewBatchManager(bus eventbus.EventBus, source string, capacity int, flushEvery time.Duration, compressor DeltaCompressor) *BatchManager {
	if compressor == nil {
		compressor = NewPassthroughCompressor()
	}
	bm := &BatchManager{
		capacity:   capacity,
		flushEvery: flushEvery,
		bus:        bus,
		source:     source,
		compressor: compressor,
		quit:       make(chan struct{}),
	}
	go bm.loop()
	return bm
}

// AddChange добавляет пакет в буфер. При переполнении вытесняется
// пакет с наименьшим приоритетом.
func (bm *BatchManager) AddChange(ch Change) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if len(bm.buf) >= bm.capacity {
		lowIdx := -1
		lowPri := ch.Priority
		for i, c := range bm.buf {
			if c.Priority < lowPri {
				lowPri = c.Priority
				lowIdx = i
			}
		}
		if lowIdx >= 0 {
			bm.buf[lowIdx] = ch
		}
		return
	}
	bm.buf = append(bm.buf, ch)
}

func (bm *BatchManager) loop() {
	ticker := time.NewTicker(bm.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bm.flush()
		case <-bm.quit:
			return
		}
	}
}

// flush отсылает накопленные пакеты единым сообщением
func (bm *BatchManager) flush() {
	bm.mu.Lock()
	if len(bm.buf) == 0 {
		bm.mu.Unlock()
		return
	}
	changes := make([]Change, len(bm.buf))
	copy(changes, bm.buf)
	bm.buf = bm.buf[:0]
	bm.mu.Unlock()

	payload, err := bm.compressor.Compress(changes)
	if err != nil {
		logging.Warn("BatchManager: ошибка сжатия: %v", err)
		return
	}

	env := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    bm.source,
		EventType: EventTypeSyncBatch,
		Version:   1,
		Priority:  5,
		Payload:   payload,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := bm.bus.Publish(ctx, env); err != nil {
		logging.Warn("BatchManager: ошибка публикации: %v", err)
	}
}

// Stop завершает работу и отправляет остаток буфера
func (bm *BatchManager) Stop() {
	close(bm.quit)
	bm.flush()
}
