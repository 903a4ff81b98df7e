package ordsync

import "github.com/floradistro/ordsync/types"

// Sentinel errors returned by the Store, re-exported from the types package
// so callers can check them without importing types directly.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrNATSConnectionRequired is returned when the NATS connection is nil
	// and no custom channel factory was provided.
	ErrNATSConnectionRequired = types.ErrNATSConnectionRequired

	// ErrServiceRequired is returned when the record service is nil.
	ErrServiceRequired = types.ErrServiceRequired

	// ErrNotSubscribed is returned when Unsubscribe is called with no
	// active subscription.
	ErrNotSubscribed = types.ErrNotSubscribed

	// ErrRecordNotFound is returned when a mutation targets an identity
	// absent from the collection.
	ErrRecordNotFound = types.ErrRecordNotFound

	// ErrFetchFailed is returned when a bulk fetch fails.
	ErrFetchFailed = types.ErrFetchFailed

	// ErrChannelOpenFailed is returned when the change channel could not
	// be opened.
	ErrChannelOpenFailed = types.ErrChannelOpenFailed

	// ErrUnknownField is returned when a patch names a field outside the
	// patchable set.
	ErrUnknownField = types.ErrUnknownField

	// ErrInvalidFieldValue is returned when a patch value's type does not
	// match the target field.
	ErrInvalidFieldValue = types.ErrInvalidFieldValue
)
