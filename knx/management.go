// DeviceConnection and Management add point-to-point transport-layer
// connections to individual bus devices on top of a tunneling Connection.
// See KNX Standard 03_05_02 Management Procedures.

package knx

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/knxkit/knxtunnel/knx/cemi"
)

var errResponseTimeout = errors.New("knx: response timed out")

// DeviceConnection represents a point-to-point transport-layer connection
// to a bus device, established over a tunneling Connection via
// T_CONNECT/T_ACK/T_DISCONNECT control units.
type DeviceConnection struct {
	conn       *Connection         // Underlying tunneling connection
	inbound    chan cemi.Message   // Filtered messages for this connection
	targetAddr cemi.IndividualAddr // Individual Address of the target bus device
	seqNumber  uint8               // Sequence number (4 bits)
	rateLimit  uint                // Rate limit for sending messages
	lastSend   time.Time           // Time of last sent message
	connected  bool                // Whether the connection is established
	done       chan struct{}
	wait       sync.WaitGroup
	mu         sync.Mutex
}

// NewDeviceConnection establishes a new point-to-point connection to a device.
func NewDeviceConnection(conn *Connection, addr cemi.IndividualAddr) (*DeviceConnection, error) {
	dc := &DeviceConnection{
		conn:       conn,
		targetAddr: addr,
		seqNumber:  15, // Start with the maximum so the first increment will be 0.
		rateLimit:  20,
		lastSend:   time.Now().Add(-time.Second),
		done:       make(chan struct{}),
		inbound:    make(chan cemi.Message, 10),
	}

	if err := dc.requestConn(); err != nil {
		return nil, err
	}

	dc.wait.Add(1)
	go dc.serve()

	return dc, nil
}

// Send sends a cEMI telegram over the point-to-point connection to the
// device and waits for a response matching the expected command.
func (dc *DeviceConnection) Send(req cemi.Message, exp cemi.APCI, t time.Duration) (cemi.Message, error) {
	if !dc.connected {
		return nil, errors.New("not connected to device")
	}

	seq := dc.nextSeqNum()
	if err := dc.setSeqNum(req, seq); err != nil {
		return nil, err
	}

	dc.applyRateLimit()

	if err := dc.conn.Send(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if err := dc.awaitAck(); err != nil {
		return nil, err
	}

	timeout := time.After(t)

	for {
		select {
		case <-timeout:
			return nil, errors.New("response timed out")

		case <-dc.done:
			return nil, errors.New("connection was closed")

		case res := <-dc.inbound:
			ind, ok := res.(*cemi.LDataInd)
			if !ok {
				continue
			}

			app, ok := ind.LData.Data.(*cemi.AppData)
			if !ok {
				continue
			}
			if app.Command != exp {
				continue
			}

			dc.applyRateLimit()

			ack := cemi.NewAck(dc.conn.SourceAddr(), ind.LData.Source, app.SeqNumber)
			if err := dc.conn.Send(ack); err != nil {
				return nil, fmt.Errorf("failed to send ACK: %w", err)
			}

			return ind, nil
		}
	}
}

// Disconnect closes the point-to-point connection to the device.
func (dc *DeviceConnection) Disconnect() error {
	dc.mu.Lock()
	if !dc.connected {
		dc.mu.Unlock()
		return nil
	}
	dc.mu.Unlock()

	dc.applyRateLimit()

	req := cemi.NewDiscReq(dc.conn.SourceAddr(), dc.targetAddr)
	err := dc.conn.Send(req)

	dc.mu.Lock()
	dc.connected = false
	dc.mu.Unlock()

	select {
	case <-dc.done:
	default:
		close(dc.done)
	}

	dc.wait.Wait()

	return err
}

// Inbound returns the channel for receiving messages from the connection.
func (dc *DeviceConnection) Inbound() <-chan cemi.Message {
	return dc.inbound
}

// requestConn establishes the transport-layer connection to the device.
func (dc *DeviceConnection) requestConn() error {
	dc.mu.Lock()
	if dc.connected {
		dc.mu.Unlock()
		return errors.New("already connected to device")
	}
	dc.mu.Unlock()

	req := cemi.NewConnReq(dc.conn.SourceAddr(), dc.targetAddr)
	if err := dc.conn.Send(req); err != nil {
		return err
	}

	timeout := time.After(dc.conn.tunnelCfg.ResponseTimeout)
	connInbound := dc.conn.Inbound()

	for {
		select {
		case <-timeout:
			return errResponseTimeout

		case msg, open := <-connInbound:
			if !open {
				return errors.New("tunnel was closed before a connection could be established")
			}

			if con, ok := msg.(*cemi.LDataCon); ok {
				if _, ok := con.LData.Data.(*cemi.ControlConn); !ok {
					continue
				}

				dc.connected = true
				return nil
			}
		}
	}
}

// serve processes messages from the underlying connection's inbound channel.
func (dc *DeviceConnection) serve() {
	defer dc.wait.Done()
	defer close(dc.inbound)

	connInbound := dc.conn.Inbound()

	for {
		select {
		case <-dc.done:
			return

		case msg, open := <-connInbound:
			if !open {
				dc.handleConnClosed()
				return
			}

			if dc.handleDisconnect(msg) {
				continue
			}

			select {
			case dc.inbound <- msg:

			default:
				dc.conn.logger.Printf("device connection inbound channel for %s is full, discarding message: %T", dc.targetAddr, msg)
			}
		}
	}
}

// handleDisconnect processes a disconnect request received from the device.
func (dc *DeviceConnection) handleDisconnect(msg cemi.Message) bool {
	ind, ok := msg.(*cemi.LDataInd)
	if !ok {
		return false
	}

	if ind.LData.Destination != uint16(dc.conn.SourceAddr()) || ind.LData.Source != dc.targetAddr {
		return false
	}

	if _, ok := ind.LData.Data.(*cemi.ControlDisc); ok {
		if !dc.connected {
			return true
		}

		dc.Disconnect()

		select {
		case <-dc.done:
		default:
			close(dc.done)
		}

		return true
	}

	return false
}

// handleConnClosed handles the case when the underlying connection's inbound channel closes.
func (dc *DeviceConnection) handleConnClosed() {
	dc.mu.Lock()
	dc.connected = false
	dc.mu.Unlock()

	select {
	case <-dc.done:
	default:
		close(dc.done)
	}
}

// nextSeqNum increments the sequence number for the connection.
func (dc *DeviceConnection) nextSeqNum() uint8 {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.seqNumber = (dc.seqNumber + 1) % 16
	return dc.seqNumber
}

// awaitAck waits for a T_Ack from the device after sending a request.
func (dc *DeviceConnection) awaitAck() error {
	timeout := time.After(dc.conn.tunnelCfg.ResponseTimeout)

	for {
		select {
		case <-timeout:
			return errors.New("timed out while waiting for ACK")

		case <-dc.done:
			return errors.New("connection was closed")

		case res := <-dc.inbound:
			ind, ok := res.(*cemi.LDataInd)
			if !ok {
				continue
			}

			switch unit := ind.LData.Data.(type) {
			case *cemi.ControlAck:
				if unit.SeqNumber != dc.seqNumber {
					return fmt.Errorf(
						"ack sequence number %d must match request sequence number %d",
						unit.SeqNumber, dc.seqNumber,
					)
				}
				return nil

			case *cemi.ControlNak:
				return fmt.Errorf("device rejected request with T_NAK, sequence number %d", unit.SeqNumber)

			default:
				continue
			}
		}
	}
}

// setSeqNum sets the sequence number in the request, turning it into a
// T_DATA_CONNECTED telegram.
func (dc *DeviceConnection) setSeqNum(req cemi.Message, seq uint8) error {
	ind, ok := req.(*cemi.LDataReq)
	if !ok {
		return fmt.Errorf("expected LDataReq, got %T", req)
	}

	app, ok := ind.LData.Data.(*cemi.AppData)
	if !ok {
		return fmt.Errorf("expected AppData, got %T", ind.LData.Data)
	}

	app.Numbered = true
	app.SeqNumber = seq

	return nil
}

// applyRateLimit ensures the connection's rate limit is respected.
func (dc *DeviceConnection) applyRateLimit() {
	dc.mu.Lock()
	interval := time.Second / time.Duration(dc.rateLimit)
	elapsed := time.Since(dc.lastSend)
	if elapsed < interval {
		wait := interval - elapsed
		dc.mu.Unlock()
		time.Sleep(wait)
		dc.mu.Lock()
	}
	dc.lastSend = time.Now()
	dc.mu.Unlock()
}

// Management handles point-to-point connections to individual devices,
// keyed by their individual address.
type Management struct {
	conn        *Connection
	connections map[cemi.IndividualAddr]*DeviceConnection
	mu          sync.Mutex
	done        chan struct{}
}

// NewManagement creates a new Management instance bound to conn.
func NewManagement(conn *Connection) *Management {
	return &Management{
		conn:        conn,
		connections: make(map[cemi.IndividualAddr]*DeviceConnection),
		done:        make(chan struct{}),
	}
}

// Close stops all management operations and closes all connections.
func (m *Management) Close() {
	close(m.done)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, dc := range m.connections {
		dc.Disconnect()
	}
}

// Connect establishes a new point-to-point connection to a device.
func (m *Management) Connect(addr cemi.IndividualAddr) (*DeviceConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dc, exists := m.connections[addr]
	if exists {
		if !dc.connected {
			delete(m.connections, addr)
		} else {
			return dc, nil
		}
	}

	dc, err := NewDeviceConnection(m.conn, addr)
	if err != nil {
		return nil, err
	}

	m.connections[addr] = dc

	return dc, nil
}

// Disconnect closes the point-to-point connection to a device if it exists.
func (m *Management) Disconnect(addr cemi.IndividualAddr) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dc, exists := m.connections[addr]
	if !exists {
		return fmt.Errorf("connection not found")
	}

	if err := dc.Disconnect(); err != nil {
		return err
	}

	delete(m.connections, addr)
	return nil
}

// GetConnection returns an existing point-to-point connection if it exists,
// or nil if it does not.
func (m *Management) GetConnection(addr cemi.IndividualAddr) *DeviceConnection {
	m.mu.Lock()
	defer m.mu.Unlock()

	dc, exists := m.connections[addr]
	if !exists {
		return nil
	}

	return dc
}
