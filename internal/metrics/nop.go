// Package metrics provides metrics collector implementations for the
// ordsync library.
package metrics

import "github.com/floradistro/ordsync/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external metrics
// collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordConnStateTransition discards the connection state transition metric.
func (n *NopMetrics) RecordConnStateTransition(_ /* from */, _ /* to */ types.ConnState) {
	// No-op
}

// RecordRefresh discards the refresh outcome metric.
func (n *NopMetrics) RecordRefresh(_ /* kind */ string, _ /* success */ bool, _ /* duration */ float64) {
	// No-op
}

// RecordReconcile discards the reconcile metric.
func (n *NopMetrics) RecordReconcile(_ /* op */ types.Operation) {
	// No-op
}

// RecordReconnectScheduled discards the reconnect scheduling metric.
func (n *NopMetrics) RecordReconnectScheduled() {
	// No-op
}

// RecordMutation discards the mutation outcome metric.
func (n *NopMetrics) RecordMutation(_ /* field */ types.Field, _ /* success */ bool) {
	// No-op
}

// RecordHeartbeatTick discards the heartbeat tick metric.
func (n *NopMetrics) RecordHeartbeatTick() {
	// No-op
}
