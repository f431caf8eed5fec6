// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import "fmt"

// ConfigError is raised synchronously at construction when an option is
// invalid: a malformed group address, an unknown DPT identifier, a bad IP.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string { return "knx: invalid configuration: " + e.Reason }

// MalformedFrame reports a datagram that failed to decode. It is always
// recoverable: the datagram is dropped and connection state is unchanged.
type MalformedFrame struct {
	Reason string
}

func (e MalformedFrame) Error() string { return "knx: malformed frame: " + e.Reason }

// ProtocolError reports an operation the connection's current state does not
// allow: Send returns it for a write issued while the connection is not
// Connected. Inbound frames are never reported with it; a frame of an unknown
// service type is dropped and a non-OK CONNECTIONSTATE_RESPONSE is ignored.
type ProtocolError struct {
	Reason string
}

func (e ProtocolError) Error() string { return "knx: protocol error: " + e.Reason }

// ConnectFailed reports a CONNECT_RESPONSE with a nonzero status. It is
// terminal for the current attempt; the reconnect policy decides retry.
type ConnectFailed struct {
	Status byte
}

func (e ConnectFailed) Error() string {
	return fmt.Sprintf("knx: connect failed, gateway status 0x%02x", e.Status)
}

// ConnectTimeout reports that no CONNECT_RESPONSE arrived within the
// connect timeout across the configured number of attempts.
type ConnectTimeout struct{}

func (ConnectTimeout) Error() string { return "knx: connect timed out" }

// TunnelStalled reports that an ack or heartbeat was lost past the retry
// budget; the connection drops and, if enabled, reconnects.
type TunnelStalled struct {
	Reason string
}

func (e TunnelStalled) Error() string { return "knx: tunnel stalled: " + e.Reason }

// WriteRejected reports a negative L_Data.con for an application write.
// The value was not updated.
type WriteRejected struct {
	GroupAddr uint16
}

func (e WriteRejected) Error() string {
	return fmt.Sprintf("knx: write to group address %d rejected by gateway", e.GroupAddr)
}

// Cancelled reports a queued write released by disconnect().
type Cancelled struct{}

func (Cancelled) Error() string { return "knx: write cancelled by disconnect" }

// Expired reports a queued write dropped for exceeding maxQueueAge.
type Expired struct{}

func (Expired) Error() string { return "knx: write expired in queue" }
