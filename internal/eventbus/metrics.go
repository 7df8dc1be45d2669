package eventbus

import (
	"net/http"
	"time"

	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsExporter публикует счётчики шины в Prometheus. Экспортер не
// привязан к реализации шины: раз в секунду снимает Stats и переносит
// приращения в счётчики. Шина мира несёт события чанков и пакеты
// синхронизации, поэтому её пропускная способность — рабочая метрика узла.
type MetricsExporter struct {
	bus     EventBus
	quit    chan struct{}
	done    chan struct{}
	started bool

	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge
}

// NewMetricsExporter создаёт экспортер и регистрирует метрики.
// Цикл обновления запускается отдельно через StartHTTP.
func NewMetricsExporter(bus EventBus) *MetricsExporter {
	me := &MetricsExporter{
		bus:  bus,
		quit: make(chan struct{}),
		done: make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxworld_eventbus",
			Name:      "messages_published_total",
			Help:      "Событий мира и пакетов синхронизации, опубликованных в шину.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxworld_eventbus",
			Name:      "messages_consumed_total",
			Help:      "Событий, доставленных подписчикам шины.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxworld_eventbus",
			Name:      "messages_dropped_total",
			Help:      "Событий, отброшенных back-pressure или ошибками шины.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxworld_eventbus",
			Name:      "messages_inflight",
			Help:      "Событий в очереди шины, ещё не доставленных.",
		}),
	}

	prometheus.MustRegister(me.published, me.consumed, me.dropped, me.inflight)
	return me
}

// StartHTTP поднимает эндпоинт Prometheus на указанном адресе
// (например ":2112") и запускает цикл обновления метрик.
// Метод неблокирующий.
func (m *MetricsExporter) StartHTTP(addr string) {
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	m.started = true
	go m.loop()
}

// Stop останавливает цикл обновления метрик. Безопасен и для
// экспортера, у которого StartHTTP не вызывался. HTTP-сервер не
// завершается: он живёт на собственном порту до остановки процесса.
func (m *MetricsExporter) Stop() {
	close(m.quit)
	if m.started {
		<-m.done
	}
}

func (m *MetricsExporter) loop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	defer close(m.done)

	// Счётчикам Prometheus отдаются приращения относительно прошлого снимка
	var prev Stats

	for {
		select {
		case <-ticker.C:
			stats := m.bus.Metrics()

			if d := stats.Published - prev.Published; d > 0 {
				m.published.Add(float64(d))
			}
			if d := stats.Consumed - prev.Consumed; d > 0 {
				m.consumed.Add(float64(d))
			}
			if d := stats.Dropped - prev.Dropped; d > 0 {
				m.dropped.Add(float64(d))
			}
			m.inflight.Set(float64(stats.InFlight))

			prev = stats
		case <-m.quit:
			return
		}
	}
}
