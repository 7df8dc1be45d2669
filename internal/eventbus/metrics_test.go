package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Экспортер регистрирует метрики в глобальном регистре Prometheus,
// поэтому на весь пакет создаётся один экземпляр.
func TestMetricsExporterStopWithoutStart(t *testing.T) {
	me := NewMetricsExporter(NewMemoryBus(4))

	// Узел может завершиться до запуска цикла метрик:
	// Stop не должен ждать никогда не стартовавший loop
	stopped := make(chan struct{})
	go func() {
		me.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop не завершился: ждёт цикл, который не запускался")
	}
	assert.False(t, me.started)
}
