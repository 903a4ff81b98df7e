package types

// Operation identifies the kind of change a live event carries.
type Operation string

// Change operations.
const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ChannelStatus reports transport-level events for an open change channel.
type ChannelStatus int

const (
	// ChannelSubscribed indicates the handshake completed and the channel
	// is delivering events.
	ChannelSubscribed ChannelStatus = iota

	// ChannelError indicates a transport error on the channel.
	ChannelError

	// ChannelTimeout indicates the handshake did not complete in time.
	ChannelTimeout

	// ChannelClosed indicates the channel was closed, either explicitly or
	// by the transport.
	ChannelClosed
)

// String returns the string representation of the channel status.
func (s ChannelStatus) String() string {
	switch s {
	case ChannelSubscribed:
		return "Subscribed"
	case ChannelError:
		return "Error"
	case ChannelTimeout:
		return "Timeout"
	case ChannelClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// ChannelHandlers are the callbacks a channel invokes as events arrive.
//
// Handlers are invoked in transport delivery order. Any handler may be nil,
// in which case the corresponding event is dropped.
type ChannelHandlers struct {
	// OnInsert is called for each insert event with the (partial) record.
	OnInsert func(record Record)

	// OnUpdate is called for each update event with the (partial) record.
	OnUpdate func(record Record)

	// OnDelete is called for each delete event with the record identity.
	OnDelete func(id string)

	// OnStatus is called on transport status changes. The error argument
	// is non-nil for ChannelError and ChannelTimeout.
	OnStatus func(status ChannelStatus, err error)
}

// ChannelHandle is an open change channel that can be torn down.
type ChannelHandle interface {
	// Close tears down the channel. Implementations must report
	// ChannelClosed through OnStatus at most once and must be safe to
	// call more than once.
	Close() error
}

// ChannelFactory opens a change channel for a topic.
//
// The default factory subscribes over NATS; tests and alternative transports
// inject their own via the WithChannelFactory option.
type ChannelFactory func(topic string, handlers ChannelHandlers) (ChannelHandle, error)
