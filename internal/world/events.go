package world

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dyzdyz010/voxworld/internal/eventbus"
	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/google/uuid"
)

// Типы событий мира на шине
const (
	EventTickCompleted = "world.tick_completed"
	EventChunkLoaded   = "world.chunk_loaded"
	EventChunkFlushed  = "world.chunk_flushed"
)

// eventSource имя источника в конвертах событий
const eventSource = "voxworld"

// TickEvent сводка завершённого тика
type TickEvent struct {
	Tick     uint64 `json:"tick"`
	Chunks   int    `json:"chunks"`
	Commands int    `json:"commands"`
	Applied  int    `json:"applied"`
	Dropped  int    `json:"dropped"`
	Millis   int64  `json:"millis"`
}

// ChunkEvent событие жизненного цикла чанка
type ChunkEvent struct {
	Coords vec.Vec3 `json:"coords"`
	Ops    int      `json:"ops,omitempty"`
}

// publish отправляет событие на шину, если она подключена.
// Потеря события не критична, ошибки только логируются.
func (wm *WorldManager) publish(eventType string, payload any) {
	if wm.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Сериализация события %s: %v", eventType, err)
		return
	}
	ev := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		EventType: eventType,
		Version:   1,
		Payload:   data,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := wm.bus.Publish(ctx, ev); err != nil {
		logging.Warn("Публикация события %s: %v", eventType, err)
	}
}

func (wm *WorldManager) publishChunkEvent(eventType string, coords vec.Vec3, ops int) {
	wm.publish(eventType, ChunkEvent{Coords: coords, Ops: ops})
}

// observeTick обновляет метрики и публикует сводку тика
func (wm *WorldManager) observeTick(tick uint64, chunks, commands, applied, dropped int, elapsed time.Duration) {
	metricTickDuration.Observe(elapsed.Seconds())
	metricCommands.WithLabelValues("reaction").Add(float64(commands))
	metricAppliedOps.Add(float64(applied))
	metricDroppedCommands.Add(float64(dropped))

	wm.publish(EventTickCompleted, TickEvent{
		Tick:     tick,
		Chunks:   chunks,
		Commands: commands,
		Applied:  applied,
		Dropped:  dropped,
		Millis:   elapsed.Milliseconds(),
	})
}
