package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// Confirmation Metrics
	confirmationAttempts *prometheus.HistogramVec
	confirmationsTotal   *prometheus.CounterVec
	pollsInFlight        prometheus.Gauge

	// Operation Metrics
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	// History Metrics
	historyEntriesFetched  prometheus.Histogram
	historyEntriesDegraded prometheus.Counter

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// Confirmation Metrics
		confirmationAttempts: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "confirmation_attempts",
				Help:    "Number of signature status checks made before the poll loop ended",
				Buckets: []float64{1, 2, 5, 10, 15, 20, 30},
			},
			[]string{"outcome"},
		),
		confirmationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confirmations_total",
				Help: "Total number of confirmation poll loops by outcome",
			},
			[]string{"outcome"},
		),
		pollsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "confirmation_polls_in_flight",
				Help: "Number of confirmation poll loops currently running",
			},
		),

		// Operation Metrics
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "operations_total",
				Help: "Total number of claim, transfer and create-token operations by final state",
			},
			[]string{"operation", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "operation_duration_seconds",
				Help:    "Duration of operations from validation to terminal state in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 90},
			},
			[]string{"operation"},
		),

		// History Metrics
		historyEntriesFetched: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "history_entries_fetched",
				Help:    "Number of transaction history entries returned per read",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		historyEntriesDegraded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "history_entries_degraded_total",
				Help: "Total number of history entries returned without transaction detail",
			},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	if m == nil {
		return
	}
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// Confirmation metric helpers

// RecordConfirmation records the outcome of a poll loop and how many status checks it took.
func (m *Metrics) RecordConfirmation(outcome string, attempts int) {
	if m == nil {
		return
	}
	m.confirmationsTotal.WithLabelValues(outcome).Inc()
	m.confirmationAttempts.WithLabelValues(outcome).Observe(float64(attempts))
}

// RecordPollInFlight adjusts the in-flight poll gauge by delta.
func (m *Metrics) RecordPollInFlight(delta float64) {
	if m == nil {
		return
	}
	m.pollsInFlight.Add(delta)
}

// Operation metric helpers

// RecordOperation records an operation reaching a terminal state.
func (m *Metrics) RecordOperation(operation, status string, duration float64) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordHistoryEntries records the size of a history read.
func (m *Metrics) RecordHistoryEntries(count int) {
	if m == nil {
		return
	}
	m.historyEntriesFetched.Observe(float64(count))
}

// RecordHistoryDegraded counts history entries whose detail fetch failed.
func (m *Metrics) RecordHistoryDegraded(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.historyEntriesDegraded.Add(float64(count))
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	if m == nil {
		return
	}
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}
