package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики движка. Регистрируются в глобальном реестре и
// экспортируются на /metrics endpoint сервера.
var (
	// ExecutionsTotal — количество запусков исполнения графа по исходу.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphflow_executions_total",
		Help: "Total graph executions by outcome",
	}, []string{"outcome"})

	// NodeDuration — длительность выполнения узлов по типу.
	NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graphflow_node_duration_seconds",
		Help:    "Node execution duration by node type",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"node_type"})

	// ChainRunsTotal — количество прогонов цепочек по исходу.
	ChainRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphflow_chain_runs_total",
		Help: "Total chain runs by outcome",
	}, []string{"outcome"})

	// ChainNodesInFlight — количество выполняющихся узлов цепочек.
	ChainNodesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graphflow_chain_nodes_in_flight",
		Help: "Chain workflows currently executing",
	})

	// EventsEmitted — количество событий шины по типу.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphflow_events_emitted_total",
		Help: "Events emitted on the engine bus by type",
	}, []string{"event_type"})

	// BackendReconnects — количество переподключений к бэкенду.
	BackendReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graphflow_backend_reconnects_total",
		Help: "WebSocket reconnects to the generation backend",
	})
)
