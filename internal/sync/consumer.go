package sync

import (
	"context"

	"github.com/dyzdyz010/voxworld/internal/eventbus"
	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/dyzdyz010/voxworld/internal/protocol"
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// Applier применяет чужие журналы изменений к локальной реплике мира
type Applier interface {
	ApplyRemoteChanges(coords vec.Vec3, ops []domain.ChangeOp) error
}

// SyncConsumer слушает пакеты синхронизации других узлов и накатывает
// их на реплику. Собственные пакеты узла пропускаются по Source.
type SyncConsumer struct {
	sub        eventbus.Subscription
	compressor DeltaCompressor
	applier    Applier
	nodeID     string
}

// NewSyncConsumer подписывается на пакеты синхронизации
func NewSyncConsumer(bus eventbus.EventBus, compressor DeltaCompressor, applier Applier, nodeID string) (*SyncConsumer, error) {
	if compressor == nil {
		compressor = NewPassthroughCompressor()
	}
	sc := &SyncConsumer{compressor: compressor, applier: applier, nodeID: nodeID}
	sub, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{EventTypeSyncBatch}}, sc.handle)
	if err != nil {
		return nil, err
	}
	sc.sub = sub
	return sc, nil
}

func (sc *SyncConsumer) handle(ctx context.Context, ev *eventbus.Envelope) {
	if ev.Source == sc.nodeID {
		return // свой же пакет, сделал круг по шине
	}

	changes, err := sc.compressor.Decompress(ev.Payload)
	if err != nil {
		logging.Warn("SyncConsumer: ошибка распаковки от %s: %v", ev.Source, err)
		return
	}

	for _, ch := range changes {
		coords, ops, err := protocol.DecodeBatch(ch.Data)
		if err != nil {
			logging.Warn("SyncConsumer: битый пакет от %s: %v", ev.Source, err)
			continue
		}
		if sc.applier == nil {
			continue
		}
		if err := sc.applier.ApplyRemoteChanges(coords, ops); err != nil {
			logging.Warn("SyncConsumer: накат %v от %s: %v", coords, ev.Source, err)
		}
	}
}

// Stop отписывается от шины
func (sc *SyncConsumer) Stop() {
	sc.sub.Unsubscribe()
}
