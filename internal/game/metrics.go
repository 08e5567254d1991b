package game

import (
	"github.com/prometheus/client_golang/prometheus"
)

// serverMetrics - метрики игрового цикла
type serverMetrics struct {
	tickDuration   prometheus.Histogram
	ticks          prometheus.Counter
	events         *prometheus.CounterVec
	internalErrors prometheus.Counter
	saves          *prometheus.CounterVec
	saveDuration   prometheus.Histogram
	dirtyChunks    prometheus.Gauge
	players        prometheus.Gauge
}

func newServerMetrics(reg prometheus.Registerer) (*serverMetrics, error) {
	m := &serverMetrics{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "game",
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика симуляции.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "ticks_total",
			Help:      "Число выполненных тиков.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "events_total",
			Help:      "Обработанные доменные события по типам.",
		}, []string{"type"}),
		internalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "internal_errors_total",
			Help:      "Внутренние ошибки движка (каскады, тики, моды).",
		}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "world_saves_total",
			Help:      "Сохранения мира по результату.",
		}, []string{"result"}),
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "game",
			Name:      "world_save_duration_seconds",
			Help:      "Длительность сохранения мира.",
			Buckets:   prometheus.DefBuckets,
		}),
		dirtyChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "dirty_chunks",
			Help:      "Чанки, изменённые после последнего сохранения.",
		}),
		players: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "players",
			Help:      "Подключённые игроки.",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.tickDuration, m.ticks, m.events, m.internalErrors,
		m.saves, m.saveDuration, m.dirtyChunks, m.players,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
