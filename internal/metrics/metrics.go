// Package metrics declares the process's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Naming convention: namespace_subsystem_name
// - namespace: draft_together (application-level grouping)
// - subsystem: websocket, room, ingest, persistence, circuit_breaker, redis (feature-level grouping)
// - name: specific metric (connections_active, events_total, etc.)

var (
	// ActiveWebSocketConnections tracks the current number of active WebSocket connections.
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "draft_together",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// ActiveRooms tracks the current number of rooms held in the registry.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "draft_together",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of rooms held in the in-memory registry",
	})

	// RoomPeers tracks the number of connected peers in each room.
	RoomPeers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "draft_together",
		Subsystem: "room",
		Name:      "peers_count",
		Help:      "Number of connected peers in each room",
	}, []string{"room_id"})

	// WebsocketEvents tracks the total number of WebSocket events processed.
	WebsocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draft_together",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total WebSocket events processed",
	}, []string{"event_type", "status"})

	// MessageProcessingDuration tracks the time spent handling an inbound edit.
	MessageProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "draft_together",
		Subsystem: "websocket",
		Name:      "message_processing_seconds",
		Help:      "Time spent processing inbound WebSocket messages",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"event_type"})

	// DraftEditsTotal tracks the total number of draft edits applied.
	DraftEditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draft_together",
		Subsystem: "room",
		Name:      "edits_total",
		Help:      "Total draft edits applied, by outcome",
	}, []string{"outcome"})

	// IngestRunsTotal tracks catalog/role ingestion worker runs.
	IngestRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draft_together",
		Subsystem: "ingest",
		Name:      "runs_total",
		Help:      "Total ingestion worker runs, by worker and outcome",
	}, []string{"worker", "outcome"})

	// IngestRunDuration tracks the duration of ingestion worker runs.
	IngestRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "draft_together",
		Subsystem: "ingest",
		Name:      "run_duration_seconds",
		Help:      "Duration of ingestion worker runs",
		Buckets:   prometheus.DefBuckets,
	}, []string{"worker"})

	// ValidationSetSize tracks the number of champion ids currently eligible for edits.
	ValidationSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "draft_together",
		Subsystem: "ingest",
		Name:      "validation_set_size",
		Help:      "Number of champion ids currently eligible for draft edits",
	})

	// PersistenceFlushesTotal tracks periodic draft-store flush runs.
	PersistenceFlushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draft_together",
		Subsystem: "persistence",
		Name:      "flushes_total",
		Help:      "Total periodic draft persistence flushes, by outcome",
	}, []string{"outcome"})

	// CircuitBreakerState tracks the current state of the broadcast-relay circuit breaker.
	// 0: Closed (Healthy), 1: Open (Failure), 2: Half-Open (Recovering)
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "draft_together",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Current state of the circuit breaker (0: Closed, 1: Open, 2: Half-Open)",
	}, []string{"service"})

	// CircuitBreakerFailures tracks requests rejected by the circuit breaker.
	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draft_together",
		Subsystem: "circuit_breaker",
		Name:      "failures_total",
		Help:      "Total requests rejected by the circuit breaker",
	}, []string{"service"})

	// RedisOperationsTotal tracks the total number of broadcast-relay Redis operations.
	RedisOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draft_together",
		Subsystem: "redis",
		Name:      "operations_total",
		Help:      "Total number of broadcast-relay Redis operations",
	}, []string{"operation", "status"})

	// RedisOperationDuration tracks the duration of broadcast-relay Redis operations.
	RedisOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "draft_together",
		Subsystem: "redis",
		Name:      "operation_duration_seconds",
		Help:      "Duration of broadcast-relay Redis operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

// IncConnection records a newly accepted WebSocket connection.
func IncConnection() {
	ActiveWebSocketConnections.Inc()
}

// DecConnection records a closed WebSocket connection.
func DecConnection() {
	ActiveWebSocketConnections.Dec()
}
