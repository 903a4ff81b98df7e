// Package channel implements the live change-event channel over NATS.
//
// A channel is a logical subscription to the stream of change events for a
// topic. Events are published on per-operation subjects:
//
//	{topic}.insert   types.Record (base fields only)
//	{topic}.update   types.Record (partial)
//	{topic}.delete   {"id": "..."}
//
// Open subscribes to all three subjects and confirms the handshake with a
// server round-trip; the result is reported through the OnStatus handler
// (subscribed, error, timeout, closed) so the Store's connection supervisor
// can drive its state machine without knowing the transport.
//
// Publisher is the producing side of the same wire format, used by backends
// and by tests to emit change events.
package channel
