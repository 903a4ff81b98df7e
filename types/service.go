package types

import "context"

// RecordService is the remote authoritative store consumed by the
// synchronized collection.
//
// Implementations must be safe for concurrent use. FetchAll must return the
// full current authoritative set matching the filter, including all derived
// fields; it is the source of truth that silent refreshes re-establish.
type RecordService interface {
	// FetchAll returns the authoritative record set matching the filter.
	FetchAll(ctx context.Context, filter Filter) ([]Record, error)

	// UpdateField persists a single field-level patch to the record with
	// the given identity.
	UpdateField(ctx context.Context, id string, field Field, value any) error
}
