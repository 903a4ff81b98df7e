package types

import "context"

// Hooks defines callbacks for Store lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// to avoid blocking the state machine. Hooks receive the store's lifecycle
// context which is cancelled during teardown.
//
// Hook execution behavior:
//   - Hooks run concurrently and may not complete before Unsubscribe returns
//   - Hook errors are logged but never fail store operations
//
// This is the observable surface UI layers attach to: OnRecordsChanged fires
// after every collection mutation (live event, full replace, or optimistic
// patch) with a snapshot the receiver may retain.
type Hooks struct {
	// OnRecordsChanged is called after any collection mutation with a
	// deep-copied snapshot of the full collection.
	OnRecordsChanged func(ctx context.Context, records []Record) error

	// OnConnStateChanged is called when the connection state transitions.
	OnConnStateChanged func(ctx context.Context, from, to ConnState) error

	// OnError is called when a recoverable error occurs.
	OnError func(ctx context.Context, err error) error
}
