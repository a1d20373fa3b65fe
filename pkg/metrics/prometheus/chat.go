// Package prometheus provides the prometheus-backed implementations of the
// metrics interfaces.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/parley/pkg/metrics"
)

// chatMetrics is the Prometheus implementation of metrics.ChatMetrics.
type chatMetrics struct {
	connectionsAccepted    prometheus.Counter
	connectionsClosed      prometheus.Counter
	connectionsForceClosed prometheus.Counter
	activeConnections      prometheus.Gauge
	commands               *prometheus.CounterVec
	broadcastFanouts       prometheus.Counter
	broadcastDeliveries    prometheus.Counter
}

// NewChatMetrics creates a new Prometheus-backed ChatMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewChatMetrics() metrics.ChatMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &chatMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "parley_connections_accepted_total",
				Help: "Total number of accepted client connections",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "parley_connections_closed_total",
				Help: "Total number of closed client connections",
			},
		),
		connectionsForceClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "parley_connections_force_closed_total",
				Help: "Total number of connections force-closed after the shutdown timeout",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "parley_active_connections",
				Help: "Current number of active client connections",
			},
		),
		commands: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_commands_total",
				Help: "Total number of dispatched request lines by verb and result",
			},
			[]string{"verb", "result"},
		),
		broadcastFanouts: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "parley_broadcast_fanouts_total",
				Help: "Total number of SAY broadcasts fanned out",
			},
		),
		broadcastDeliveries: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "parley_broadcast_deliveries_total",
				Help: "Total number of RECV lines enqueued across all sessions",
			},
		),
	}
}

// RecordConnectionAccepted increments the accepted connections counter.
func (m *chatMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

// RecordConnectionClosed increments the closed connections counter.
func (m *chatMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsClosed.Inc()
}

// RecordConnectionForceClosed increments the force-closed counter.
func (m *chatMetrics) RecordConnectionForceClosed() {
	if m == nil {
		return
	}
	m.connectionsForceClosed.Inc()
}

// SetActiveConnections updates the active connection gauge.
func (m *chatMetrics) SetActiveConnections(count int32) {
	if m == nil {
		return
	}
	m.activeConnections.Set(float64(count))
}

// RecordCommand records one dispatched request line.
func (m *chatMetrics) RecordCommand(verb string, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(verb, result).Inc()
}

// RecordBroadcast records one SAY fan-out and its delivery count.
func (m *chatMetrics) RecordBroadcast(deliveries int) {
	if m == nil {
		return
	}
	m.broadcastFanouts.Inc()
	m.broadcastDeliveries.Add(float64(deliveries))
}
