package eventbus

import "context"

var globalBus EventBus

// Init устанавливает шину узла. Вызывается один раз при старте,
// до запуска цикла симуляции.
func Init(bus EventBus) { globalBus = bus }

// Publish отправляет событие в шину узла. До Init публикации
// молча отбрасываются: мир работает и без шины (tools, тесты).
func Publish(ctx context.Context, ev *Envelope) error {
	if globalBus == nil {
		return nil
	}
	return globalBus.Publish(ctx, ev)
}
