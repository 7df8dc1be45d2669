package eventbus

import (
	"context"

	"github.com/dyzdyz010/voxworld/internal/logging"
)

// StartLoggingListener подписывается на все события узла и пишет их
// в отладочный лог: загрузки и сбросы чанков, пакеты синхронизации.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) error {
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logging.Debug("[EventBus] %s %s node=%s prio=%d size=%dB",
			ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return err
	}
	logging.Info("🪵 Слушатель шины: отладочный лог всех событий включён")
	return nil
}
