// Package metrics defines the observability interfaces for the chat server
// and owns the process-wide prometheus registry.
//
// The interfaces are optional everywhere they are accepted: passing nil
// disables collection with zero overhead, which keeps the wire path free of
// metrics cost when the admin endpoint is disabled.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics provides observability for the chat adapter.
//
// Implementations must be safe for concurrent use; every method is called
// from per-connection goroutines.
type ChatMetrics interface {
	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed increments the force-closed counter.
	// Called when connections are closed after the shutdown timeout expires.
	RecordConnectionForceClosed()

	// SetActiveConnections updates the current connection count gauge.
	SetActiveConnections(count int32)

	// RecordCommand records one dispatched request line.
	//
	// Parameters:
	//   - verb: protocol verb (REGISTER, LOGIN, ...) or "UNKNOWN"
	//   - result: "1", "0", "error", or "silent"
	RecordCommand(verb string, result string)

	// RecordBroadcast records one SAY fan-out with the number of sessions the
	// RECV line was delivered to.
	RecordBroadcast(deliveries int)
}

var (
	registryMu sync.RWMutex
	registry   *prometheus.Registry
)

// InitRegistry creates the process-wide prometheus registry.
//
// Must be called before any New*Metrics constructor for metrics to be
// collected; otherwise the constructors return nil and collection is off.
func InitRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()

	if registry == nil {
		registry = prometheus.NewRegistry()
	}
}

// GetRegistry returns the process-wide registry, or nil if metrics are off.
func GetRegistry() *prometheus.Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry != nil
}
