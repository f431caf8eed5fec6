// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/knxkit/knxtunnel/knx/cemi"
	"github.com/knxkit/knxtunnel/knx/knxnet"
	"github.com/knxkit/knxtunnel/knx/util"
)

// State is one of the four states the Connection's tunneling state machine
// can be in.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// pendingWrite is a queued or in-flight application telegram.
type pendingWrite struct {
	msg      cemi.Message
	queuedAt time.Time
	result   chan error
}

// Connection drives the KNXnet/IP tunneling state machine described in the
// state table: CONNECT handshake, heartbeat, a windowed single-in-flight
// TUNNELING exchange with retransmit, sequence number discipline, and
// auto-reconnect with exponential backoff. All state mutation happens on a
// single goroutine; callers interact with it exclusively through channels,
// so no lock guards Connection's internal fields.
type Connection struct {
	config    ClientConfig
	tunnelCfg TunnelConfig
	scheduler util.Scheduler
	logger    util.Logger

	socket *knxnet.Socket

	subsMu sync.Mutex
	subs   []chan cemi.Message

	writeReq  chan *pendingWrite
	connectReq chan chan error
	disconnectReq chan chan error

	closed    chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}

	// state is owned exclusively by run's goroutine.
	state             State
	channel           uint8
	outSeq            uint8
	inSeq             uint8
	haveInSeq         bool
	pending           *pendingWrite
	pendingAttempts   int
	queue             []*pendingWrite
	reconnectBackoff  time.Duration
	heartbeatFailures int
	lastSendAt        time.Time
}

// Dial opens the local UDP socket and, unless config.ManualConnect is set,
// immediately starts the handshake.
func Dial(config ClientConfig) (*Connection, error) {
	if config.IPAddr == "" && config.HostProtocol == TunnelUDP {
		return nil, ConfigError{Reason: "ipAddr is required in tunneling mode"}
	}
	if config.IPAddr != "" && net.ParseIP(config.IPAddr).To4() == nil {
		return nil, ConfigError{Reason: fmt.Sprintf("invalid gateway IPv4 address %q", config.IPAddr)}
	}
	if config.IPPort == 0 {
		config.IPPort = 3671
	}
	if config.Tunnel == (TunnelConfig{}) {
		config.Tunnel = DefaultTunnelConfig()
	}

	logger := config.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	socket, err := knxnet.DialTunnelUDP(fmt.Sprintf("%s:%d", config.IPAddr, config.IPPort))
	if err != nil {
		return nil, err
	}

	conn := &Connection{
		config:         config,
		tunnelCfg:      config.Tunnel,
		scheduler:      util.RealScheduler{},
		logger:         logger,
		socket:         socket,
		writeReq:       make(chan *pendingWrite),
		connectReq:     make(chan chan error),
		disconnectReq:  make(chan chan error),
		closed:         make(chan struct{}),
		stopped:        make(chan struct{}),
	}

	go conn.run()

	if !config.ManualConnect {
		if err := conn.Connect(); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

// SourceAddr returns the tunnel's individual address: ClientConfig.PhysAddr
// (the zero address if unset) until the machine reaches Connected, then the
// address the gateway assigned in its CONNECT_RESPONSE.
func (c *Connection) SourceAddr() cemi.IndividualAddr {
	return c.config.PhysAddr
}

// Inbound registers a new subscription and returns a channel that
// delivers every L_Data.ind and L_Data.con message dispatched by the
// state machine, in gateway delivery order, after deduplication. Every
// call creates an independent subscription fed from the same broadcast —
// Datapoints and DeviceConnections bound to the same Connection each hold
// their own channel and all see every message. Callers must range over
// or otherwise drain the returned channel for the lifetime of the
// Connection; it is closed when the event loop stops.
func (c *Connection) Inbound() <-chan cemi.Message {
	ch := make(chan cemi.Message, 32)
	c.subsMu.Lock()
	c.subs = append(c.subs, ch)
	c.subsMu.Unlock()
	return ch
}

// Connect starts (or restarts) the handshake and blocks until the machine
// reaches Connected or gives up.
func (c *Connection) Connect() error {
	result := make(chan error, 1)
	select {
	case c.connectReq <- result:
	case <-c.stopped:
		return errors.New("knx: connection closed")
	}
	return <-result
}

// Disconnect tears the tunnel down cleanly and cancels pending writes with
// Cancelled.
func (c *Connection) Disconnect() error {
	result := make(chan error, 1)
	select {
	case c.disconnectReq <- result:
	case <-c.stopped:
		return nil
	}
	return <-result
}

// Close releases the connection's socket and stops its event loop. It does
// not wait for a clean DISCONNECT handshake; call Disconnect first for that.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	<-c.stopped
	return c.socket.Close()
}

// Send enqueues a cEMI telegram for transmission, respecting the
// single-in-flight window, and returns once the gateway has acknowledged
// it (or rejected/timed it out).
func (c *Connection) Send(msg cemi.Message) error {
	pw := &pendingWrite{msg: msg, queuedAt: time.Now(), result: make(chan error, 1)}

	select {
	case c.writeReq <- pw:
	case <-c.stopped:
		return errors.New("knx: connection closed")
	}

	return <-pw.result
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...interface{}) {}
