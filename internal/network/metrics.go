package network

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Метрики сетевой подсистемы, общие для всех хабов процесса
var (
	activeConnections = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "network",
		Name:      "active_connections",
		Help:      "Текущее число соединений.",
	}, []string{"channel"})

	packetsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "network",
		Name:      "packets_sent_total",
		Help:      "Отправленные пакеты по типам.",
	}, []string{"type"})

	packetsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "network",
		Name:      "packets_received_total",
		Help:      "Полученные пакеты по типам.",
	}, []string{"type"})

	bytesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "network",
		Name:      "bytes_sent_total",
		Help:      "Отправленные байты после сжатия.",
	})

	bytesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "network",
		Name:      "bytes_received_total",
		Help:      "Полученные байты.",
	})

	packetsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "network",
		Name:      "packets_dropped_total",
		Help:      "Отброшенные пакеты: ошибки разбора и переполнение очереди.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(activeConnections, packetsSent, packetsReceived,
		bytesSent, bytesReceived, packetsDropped)
}
