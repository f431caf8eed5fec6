// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"time"

	"github.com/knxkit/knxtunnel/knx/cemi"
	"github.com/knxkit/knxtunnel/knx/util"
)

// HostProtocol names how the KNX bus is reached: a unicast tunnel through a
// single gateway, or multicast routing among peers on the same IP segment.
// Dial always opens a tunnel; multicast routing is provided by DialRouting.
type HostProtocol int

const (
	// TunnelUDP opens a point-to-point tunnel with a specific gateway.
	TunnelUDP HostProtocol = iota
	// Multicast names KNXnet/IP routing over the multicast group, with no
	// CONNECT/DISCONNECT handshake (see DialRouting).
	Multicast
)

// Handlers bundles the event callbacks a Connection invokes. Any field left
// nil is simply not called.
type Handlers struct {
	// Connecting fires when the state machine starts a CONNECT_REQUEST
	// handshake, on both the initial connect and every reconnect attempt.
	Connecting   func()
	Connected    func(channel uint8, assigned cemi.IndividualAddr)
	Disconnected func(reason error)
	Event        func(apci cemi.APCI, src cemi.IndividualAddr, dest uint16, rawApdu []byte)
	Error        func(err error)
}

// ClientConfig configures a Connection.
type ClientConfig struct {
	// IPAddr is the gateway's IPv4 address, required in TunnelUDP mode.
	IPAddr string
	// IPPort is the gateway's UDP port, default 3671.
	IPPort uint16
	// PhysAddr is the individual address SourceAddr reports until the
	// tunnel is Connected. It is not sent in the CONNECT_REQUEST; the
	// address from the gateway's CONNECT_RESPONSE replaces it.
	PhysAddr cemi.IndividualAddr
	// Logger receives the Connection's diagnostics, such as inbound
	// messages dropped because a subscriber's channel is full; decode
	// failures go to Handlers.Error instead. Defaults to a no-op logger if
	// nil.
	Logger util.Logger
	// Handlers receives lifecycle and inbound events.
	Handlers Handlers
	// ManualConnect, if true, constructs the Connection without starting
	// the handshake; the caller calls Connect explicitly.
	ManualConnect bool
	// MinimumDelay is the minimum spacing between outbound telegrams.
	MinimumDelay time.Duration
	// HostProtocol is TunnelUDP or Multicast. Dial uses it only to decide
	// whether IPAddr is required; the Connection always tunnels.
	HostProtocol HostProtocol

	Tunnel TunnelConfig
}

// TunnelConfig holds the state machine's timing parameters. The zero value
// is invalid; use DefaultTunnelConfig.
type TunnelConfig struct {
	// ResponseTimeout bounds how long the machine waits for a
	// TUNNELING_ACK before retransmitting, and how long a DeviceConnection
	// waits for a T_CONNECT confirmation or a T_ACK before failing.
	ResponseTimeout time.Duration
	// ConnectTimeout bounds each CONNECT_REQUEST attempt.
	ConnectTimeout time.Duration
	// ConnectAttempts is the number of CONNECT_REQUEST attempts before
	// surfacing ConnectTimeout.
	ConnectAttempts int
	// HeartbeatInterval is the time between CONNECTIONSTATE_REQUESTs
	// while Connected.
	HeartbeatInterval time.Duration
	// HeartbeatTimeout bounds how long the machine waits for a
	// CONNECTIONSTATE_RESPONSE.
	HeartbeatTimeout time.Duration
	// HeartbeatFailuresAllowed is the number of consecutive heartbeat
	// failures tolerated before the tunnel is considered stalled.
	HeartbeatFailuresAllowed int
	// DisconnectTimeout bounds how long Disconnecting waits for a
	// DISCONNECT_RESPONSE before releasing resources anyway.
	DisconnectTimeout time.Duration
	// MaxQueueAge is how long a queued write may wait before it is
	// dropped with Expired.
	MaxQueueAge time.Duration
	// MaxReconnectBackoff caps the exponential backoff between
	// reconnect attempts.
	MaxReconnectBackoff time.Duration
	// AutoReconnect enables automatic reconnection after an unexpected
	// disconnect.
	AutoReconnect bool
}

// DefaultTunnelConfig returns the timing parameters named in the state
// machine's design: 1 s ack timeout with one retransmit, 10 s connect
// timeout across 3 attempts, 60 s heartbeat with a 10 s ack window and 3
// allowed failures, 5 s disconnect timeout, 30 s max queue age, 60 s max
// reconnect backoff.
func DefaultTunnelConfig() TunnelConfig {
	return TunnelConfig{
		ResponseTimeout:          time.Second,
		ConnectTimeout:           10 * time.Second,
		ConnectAttempts:          3,
		HeartbeatInterval:        60 * time.Second,
		HeartbeatTimeout:         10 * time.Second,
		HeartbeatFailuresAllowed: 3,
		DisconnectTimeout:        5 * time.Second,
		MaxQueueAge:              30 * time.Second,
		MaxReconnectBackoff:      60 * time.Second,
		AutoReconnect:            true,
	}
}

// DatapointConfig configures a Datapoint binding.
type DatapointConfig struct {
	// GA is the group address in textual form, e.g. "1/2/3".
	GA string
	// Dpt is the datapoint type identifier, e.g. "9.001".
	Dpt string
	// Autoread makes NewDatapoint issue one GroupValue_Read when it
	// creates the binding and return that read's error. No read is issued
	// when the Connection later enters Connected or reconnects.
	Autoread bool
}
