package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
type MetricsCollector interface {
	// RecordConnStateTransition records a connection state transition.
	RecordConnStateTransition(from, to ConnState)

	// RecordRefresh records the outcome of a bulk fetch.
	//
	// Parameters:
	//   - kind: "load", "refresh", or "silent"
	//   - success: true if the fetch succeeded and was applied
	//   - duration: time taken in seconds
	RecordRefresh(kind string, success bool, duration float64)

	// RecordReconcile records a live change event applied to the collection.
	RecordReconcile(op Operation)

	// RecordReconnectScheduled records that a reconnect attempt was scheduled.
	RecordReconnectScheduled()

	// RecordMutation records the outcome of an optimistic field mutation.
	RecordMutation(field Field, success bool)

	// RecordHeartbeatTick records a heartbeat-driven silent refresh tick.
	RecordHeartbeatTick()
}
