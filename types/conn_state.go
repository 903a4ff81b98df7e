package types

// ConnState represents the change-channel connection lifecycle state.
//
// States follow a defined progression during normal operation:
//
//	ConnDisconnected → ConnConnecting → ConnConnected
//
// On a channel error or handshake timeout:
//
//	ConnConnected/ConnConnecting → ConnReconnecting → ConnConnecting
//
// Unsubscribe returns the state to ConnDisconnected from anywhere.
type ConnState int

const (
	// ConnDisconnected is the initial state; no channel is open and no
	// retry is pending.
	ConnDisconnected ConnState = iota

	// ConnConnecting indicates a channel handshake is in progress.
	ConnConnecting

	// ConnConnected indicates the change channel is live.
	ConnConnected

	// ConnReconnecting indicates the channel failed and exactly one retry
	// is scheduled after the configured fixed delay.
	ConnReconnecting
)

// String returns the string representation of the connection state.
func (s ConnState) String() string {
	switch s {
	case ConnDisconnected:
		return "Disconnected"
	case ConnConnecting:
		return "Connecting"
	case ConnConnected:
		return "Connected"
	case ConnReconnecting:
		return "Reconnecting"
	default:
		return "Unknown"
	}
}
