package sync

import (
	"time"

	"github.com/dyzdyz010/voxworld/internal/eventbus"
	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/dyzdyz010/voxworld/internal/world"
)

// SyncManager собирает компоненты межузловой синхронизации журналов:
// BatchManager, Recorder и SyncConsumer.
type SyncManager struct {
	bm       *BatchManager
	recorder *Recorder
	consumer *SyncConsumer
}

// SyncConfig параметры синхронизации узла
type SyncConfig struct {
	NodeID     string
	Bus        eventbus.EventBus
	BatchSize  int
	FlushEvery time.Duration
	UseZstd    bool
	Applier    Applier // Реплика, принимающая чужие журналы
}

// NewSyncManager создаёт и запускает синхронизацию
func NewSyncManager(cfg SyncConfig) (*SyncManager, error) {
	var compressor DeltaCompressor
	if cfg.UseZstd {
		var err error
		compressor, err = NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		logging.Info("SyncManager: zstd-сжатие пакетов включено")
	} else {
		compressor = NewPassthroughCompressor()
		logging.Info("SyncManager: сжатие пакетов отключено")
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = time.Second
	}

	bm := NewBatchManager(cfg.Bus, cfg.NodeID, cfg.BatchSize, cfg.FlushEvery, compressor)

	consumer, err := NewSyncConsumer(cfg.Bus, compressor, cfg.Applier, cfg.NodeID)
	if err != nil {
		bm.Stop()
		return nil, err
	}

	logging.Info("SyncManager запущен: node=%s, batch=%d, flush=%v",
		cfg.NodeID, cfg.BatchSize, cfg.FlushEvery)

	return &SyncManager{bm: bm, consumer: consumer}, nil
}

// Recorder возвращает обёртку хранилища, дублирующую журналы в шину
func (sm *SyncManager) Recorder(inner world.Persister) *Recorder {
	if sm.recorder == nil {
		sm.recorder = NewRecorder(inner, sm.bm)
	}
	return sm.recorder
}

// Stop останавливает синхронизацию, дослав остатки буфера
func (sm *SyncManager) Stop() {
	sm.consumer.Stop()
	sm.bm.Stop()
}
