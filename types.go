package ordsync

import "github.com/floradistro/ordsync/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing internal
// packages to depend on `types` without depending on the root `ordsync`
// package, while still providing a convenient `ordsync.Record`,
// `ordsync.ConnState`, etc. for users.
type (
	Record        = types.Record
	Status        = types.Status
	PaymentStatus = types.PaymentStatus
	Field         = types.Field
	Filter        = types.Filter
	ConnState     = types.ConnState
	Operation     = types.Operation
	ChannelStatus = types.ChannelStatus
)

// Re-export interfaces from the internal types package for convenience.
type (
	RecordService    = types.RecordService
	ChannelHandle    = types.ChannelHandle
	ChannelHandlers  = types.ChannelHandlers
	ChannelFactory   = types.ChannelFactory
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export ConnState constants from the internal types package.
const (
	ConnDisconnected = types.ConnDisconnected
	ConnConnecting   = types.ConnConnecting
	ConnConnected    = types.ConnConnected
	ConnReconnecting = types.ConnReconnecting
)

// Re-export order status constants.
const (
	StatusPending   = types.StatusPending
	StatusConfirmed = types.StatusConfirmed
	StatusPreparing = types.StatusPreparing
	StatusReady     = types.StatusReady
	StatusCompleted = types.StatusCompleted
	StatusCancelled = types.StatusCancelled
)

// Re-export payment status constants.
const (
	PaymentUnpaid   = types.PaymentUnpaid
	PaymentPaid     = types.PaymentPaid
	PaymentRefunded = types.PaymentRefunded
)

// Re-export patchable field constants.
const (
	FieldStatus          = types.FieldStatus
	FieldPaymentStatus   = types.FieldPaymentStatus
	FieldCustomerName    = types.FieldCustomerName
	FieldCustomerPhone   = types.FieldCustomerPhone
	FieldLocationSummary = types.FieldLocationSummary
)
