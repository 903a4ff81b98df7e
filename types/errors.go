package types

import "errors"

// Sentinel errors for the ordsync library.
//
// These errors provide type-safe error checking using errors.Is() and
// errors.As(). Components use these sentinels for known error conditions and
// wrap external errors with context using fmt.Errorf("...: %w", err).

// Store errors - Public API errors returned by the Store.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNATSConnectionRequired is returned when the NATS connection is nil
	// and no custom channel factory was provided.
	ErrNATSConnectionRequired = errors.New("NATS connection is required")

	// ErrServiceRequired is returned when the record service is nil.
	ErrServiceRequired = errors.New("record service is required")

	// ErrNotSubscribed is returned when Unsubscribe is called on a store
	// with no active subscription.
	ErrNotSubscribed = errors.New("store not subscribed")

	// ErrRecordNotFound is returned when a mutation targets an identity
	// absent from the collection.
	ErrRecordNotFound = errors.New("record not found")

	// ErrFetchFailed is returned when a bulk fetch fails.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrChannelOpenFailed is returned when the change channel could not
	// be opened.
	ErrChannelOpenFailed = errors.New("failed to open change channel")
)

// Record errors - returned by field-level patching.
var (
	// ErrUnknownField is returned when a patch names a field outside the
	// patchable set.
	ErrUnknownField = errors.New("unknown record field")

	// ErrInvalidFieldValue is returned when a patch value's type does not
	// match the target field.
	ErrInvalidFieldValue = errors.New("invalid field value")
)
