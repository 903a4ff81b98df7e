// Package reconcile provides the pure transition functions that apply live
// change events to a synchronized record collection.
//
// All three transitions (Insert, Update, Delete) take the current collection
// and return a new one; none of them mutate their input. They are idempotent
// per event, which makes at-least-once delivery from the transport safe to
// apply directly with no local buffering or reordering.
//
// The Store owns the only mutable copy of the collection and applies these
// transitions under its lock; nothing else writes the collection.
package reconcile
