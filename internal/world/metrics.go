package world

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus-метрики симуляции. Регистрируются один раз при загрузке пакета.
var (
	metricTickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voxworld",
		Name:      "tick_duration_seconds",
		Help:      "Длительность одного тика симуляции.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
	})

	metricChunksLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxworld",
		Name:      "chunks_loaded",
		Help:      "Количество загруженных чанков.",
	})

	metricCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxworld",
		Name:      "commands_total",
		Help:      "Команды, поступившие на Commit, по источнику.",
	}, []string{"source"})

	metricAppliedOps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxworld",
		Name:      "changeops_total",
		Help:      "Записи, добавленные в журналы изменений чанков.",
	})

	metricDroppedCommands = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxworld",
		Name:      "conflicts_total",
		Help:      "Команды, отброшенные при разрешении конфликтов.",
	})

	metricFlushedOps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxworld",
		Name:      "flushed_ops_total",
		Help:      "Записи журналов, сброшенные в хранилище.",
	})

	metricActiveVoxels = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "voxworld",
		Name:      "active_voxels",
		Help:      "Размер активных наборов по доменам.",
	}, []string{"domain"})
)

func init() {
	prometheus.MustRegister(
		metricTickDuration,
		metricChunksLoaded,
		metricCommands,
		metricAppliedOps,
		metricDroppedCommands,
		metricFlushedOps,
		metricActiveVoxels,
	)
}

// UpdateActiveMetrics пересчитывает gauge активных вокселей.
// Дёргается периодически снаружи, не на каждом тике.
func (wm *WorldManager) UpdateActiveMetrics() {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	totals := make(map[string]int)
	for _, c := range wm.chunks {
		for _, d := range wm.domains.Ordered() {
			totals[d.ID().String()] += c.ActiveCount(d.ID())
		}
	}
	for name, n := range totals {
		metricActiveVoxels.WithLabelValues(name).Set(float64(n))
	}
}
