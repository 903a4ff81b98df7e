// Package ordsync provides a resilient real-time synchronization engine that
// keeps a client-held collection of order records consistent with a remote
// authoritative store across unreliable network conditions, app
// suspension/resumption, and concurrent local mutations.
//
// The engine reconciles three independent, asynchronously arriving
// information sources into one consistent, observable collection:
//
//   - an initial bulk load (fetches full rows including derived fields)
//   - a live change-event stream over NATS (partial payloads)
//   - a periodic fallback poll (the heartbeat) that silently re-fetches the
//     full set to catch anything the live feed missed
//
// # Quick Start
//
//	cfg := ordsync.Config{Topic: "orders.store1"}
//	svc, _ := service.NewNATSClient(nc, "orders.rpc", 10*time.Second)
//
//	store, err := ordsync.NewStore(&cfg, nc, svc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := store.Load(ctx, ordsync.Filter{Scope: "store1"}); err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.Subscribe(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Unsubscribe()
//
// # Key Behaviors
//
//   - Supersession: only the most recently issued load may mutate the
//     collection; stale loads resolve as no-ops
//   - Field preservation: partial live events never erase derived fields a
//     full fetch populated; an explicit empty value is honored
//   - Self-healing: every heartbeat tick replaces the whole collection with
//     the authoritative fetch result
//   - Optimistic mutation: MutateField patches locally first, persists
//     remotely, and reverts by full refresh on failure
//   - Fixed-delay reconnect: a channel failure schedules exactly one retry;
//     there is never more than one pending retry timer
//
// # Observability
//
// UI layers attach through Hooks (records changed, connection state changed,
// error) and read consistent snapshots via the accessor methods. The
// connection state machine is:
//
//	Disconnected → Connecting → Connected
//	                  ↓ (error/timeout)
//	             Reconnecting → Connecting (after ReconnectDelay)
//
// See the examples/ directory for a complete working example.
package ordsync
