package knx

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knxkit/knxtunnel/knx/cemi"
	"github.com/knxkit/knxtunnel/knx/knxnet"
)

// fakeGateway is a minimal KNXnet/IP server used to drive a Connection's
// state machine over a real loopback UDP socket.
type fakeGateway struct {
	conn    *net.UDPConn
	channel uint8
	address cemi.IndividualAddr

	remote *net.UDPAddr // client's address, learned from its CONNECT_REQUEST
	outSeq uint8        // sequence counter for frames the gateway originates

	// onTunnelReq, when set, is invoked after acknowledging a client's
	// TUNNELING_REQUEST, letting a test inject a follow-up frame such as
	// an L_Data.con.
	onTunnelReq func(gw *fakeGateway, req *knxnet.TunnelReq)

	// dropTunnelAcks, when positive, withholds the next N TUNNELING_ACKs
	// instead of sending them, to let a test exercise the client's
	// retransmit path.
	dropTunnelAcks int

	// dropConnStateRes, when true, withholds CONNECTIONSTATE_RESPONSEs,
	// to let a test exercise the client's heartbeat-failure path.
	dropConnStateRes bool
}

func newFakeGateway(t *testing.T, assigned cemi.IndividualAddr) *fakeGateway {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	gw := &fakeGateway{conn: conn, channel: 1, address: assigned}
	t.Cleanup(func() { conn.Close() })

	go gw.serve(t)

	return gw
}

func (gw *fakeGateway) port() int {
	return gw.conn.LocalAddr().(*net.UDPAddr).Port
}

func (gw *fakeGateway) send(remote *net.UDPAddr, srv knxnet.Service) {
	buf := make([]byte, 6+srv.Size())
	knxnet.Pack(buf, srv)
	gw.conn.WriteToUDP(buf, remote)
}

// sendMalformedTunnelReq sends a structurally valid KNXnet/IP header
// wrapping a TUNNELING_REQUEST connection header whose cEMI payload is a
// single, unrecognized message code, forcing a decode failure on the
// client side.
func (gw *fakeGateway) sendMalformedTunnelReq(remote *net.UDPAddr) {
	payload := []byte{4, gw.channel, gw.outSeq, 0, 0xff}
	gw.outSeq++

	buf := make([]byte, 6+len(payload))
	svcID := uint16(knxnet.TunnelReqService)
	buf[0] = 6
	buf[1] = 0x10
	buf[2] = byte(svcID >> 8)
	buf[3] = byte(svcID)
	buf[4] = byte(len(buf) >> 8)
	buf[5] = byte(len(buf))
	copy(buf[6:], payload)

	gw.conn.WriteToUDP(buf, remote)
}

// sendInbound wraps msg in a TUNNELING_REQUEST addressed to the connected
// client, using the gateway's own sequence counter.
func (gw *fakeGateway) sendInbound(msg cemi.Message) {
	req := knxnet.TunnelReq{Channel: gw.channel, SeqNumber: gw.outSeq, Payload: msg}
	gw.outSeq++
	gw.send(gw.remote, &req)
}

func (gw *fakeGateway) serve(t *testing.T) {
	buffer := make([]byte, 1024)
	for {
		n, remote, err := gw.conn.ReadFromUDP(buffer)
		if err != nil {
			return
		}

		id, srv, err := knxnet.Unpack(buffer[:n])
		if err != nil || srv == nil {
			continue
		}

		switch id {
		case knxnet.ConnReqService:
			gw.remote = remote
			local, err := knxnet.HostInfoFromAddress(gw.conn.LocalAddr())
			if err != nil {
				continue
			}
			res := knxnet.ConnRes{
				Channel: gw.channel,
				Status:  knxnet.ConnResOk,
				Data:    local,
				Address: gw.address,
			}
			gw.send(remote, &res)

		case knxnet.ConnStateReqService:
			if gw.dropConnStateRes {
				continue
			}
			res := knxnet.ConnStateRes{Channel: gw.channel, Status: knxnet.ConnStateResOk}
			gw.send(remote, &res)

		case knxnet.TunnelReqService:
			req := srv.(*knxnet.TunnelReq)
			if gw.dropTunnelAcks > 0 {
				gw.dropTunnelAcks--
				continue
			}
			ack := knxnet.TunnelRes{Channel: gw.channel, SeqNumber: req.SeqNumber, Status: knxnet.TunnelAckOk}
			gw.send(remote, &ack)
			if gw.onTunnelReq != nil {
				gw.onTunnelReq(gw, req)
			}

		case knxnet.DiscReqService:
			res := knxnet.DiscRes{Channel: gw.channel, Status: 0}
			gw.send(remote, &res)
		}
	}
}

func testTunnelConfig() TunnelConfig {
	return TunnelConfig{
		ResponseTimeout:          200 * time.Millisecond,
		ConnectTimeout:           300 * time.Millisecond,
		ConnectAttempts:          3,
		HeartbeatInterval:        10 * time.Second,
		HeartbeatTimeout:         2 * time.Second,
		HeartbeatFailuresAllowed: 3,
		DisconnectTimeout:        300 * time.Millisecond,
		MaxQueueAge:              5 * time.Second,
		MaxReconnectBackoff:      time.Second,
		AutoReconnect:            false,
	}
}

func TestConnectAssignsAddressAndState(t *testing.T) {
	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))

	conn, err := Dial(ClientConfig{
		IPAddr: "127.0.0.1",
		IPPort: uint16(gw.port()),
		Tunnel: testTunnelConfig(),
	})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, Connected, conn.state)
	assert.Equal(t, gw.channel, conn.channel)
	assert.Equal(t, cemi.IndividualAddr(0x1105), conn.SourceAddr())
}

func TestSendWaitsForTunnelingAck(t *testing.T) {
	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))

	conn, err := Dial(ClientConfig{
		IPAddr: "127.0.0.1",
		IPPort: uint16(gw.port()),
		Tunnel: testTunnelConfig(),
	})
	require.NoError(t, err)
	defer conn.Close()

	dst, err := cemi.ParseGroupAddr("1/2/3")
	require.NoError(t, err)

	req := cemi.NewGroupReq(conn.SourceAddr(), dst, cemi.GroupValueWrite, []byte{0x01})

	require.NoError(t, conn.Send(req))
	assert.Equal(t, uint8(1), conn.outSeq)
}

func TestDisconnectReturnsToDisconnected(t *testing.T) {
	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))

	conn, err := Dial(ClientConfig{
		IPAddr: "127.0.0.1",
		IPPort: uint16(gw.port()),
		Tunnel: testTunnelConfig(),
	})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Disconnect())
	assert.Equal(t, Disconnected, conn.state)
}

func TestConnectTimeoutWhenGatewaySilent(t *testing.T) {
	// Bind a socket so the port exists but never answer CONNECT_REQUEST.
	silent, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer silent.Close()

	port := silent.LocalAddr().(*net.UDPAddr).Port

	cfg := testTunnelConfig()
	cfg.ConnectTimeout = 50 * time.Millisecond
	cfg.ConnectAttempts = 2

	conn, err := Dial(ClientConfig{
		IPAddr: "127.0.0.1",
		IPPort: uint16(port),
		Tunnel: cfg,
	})
	require.Error(t, err)
	assert.IsType(t, ConnectTimeout{}, err)
	assert.Nil(t, conn)
}

// S5 — a lost TUNNELING_ACK triggers exactly one retransmit at the same
// sequence number before the ack finally lands.
func TestLostAckTriggersRetransmit(t *testing.T) {
	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))
	gw.dropTunnelAcks = 1

	cfg := testTunnelConfig()
	cfg.ResponseTimeout = 100 * time.Millisecond

	conn, err := Dial(ClientConfig{
		IPAddr: "127.0.0.1",
		IPPort: uint16(gw.port()),
		Tunnel: cfg,
	})
	require.NoError(t, err)
	defer conn.Close()

	dst, err := cemi.ParseGroupAddr("1/2/3")
	require.NoError(t, err)
	req := cemi.NewGroupReq(conn.SourceAddr(), dst, cemi.GroupValueWrite, []byte{0x01})

	require.NoError(t, conn.Send(req))
	assert.Equal(t, uint8(1), conn.outSeq)
}

// S6 — a duplicate inbound TUNNELING_REQUEST (same sequence number sent
// twice) is dispatched upward once.
func TestDuplicateInboundAcksTwiceButDispatchesOnce(t *testing.T) {
	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))

	conn, err := Dial(ClientConfig{
		IPAddr: "127.0.0.1",
		IPPort: uint16(gw.port()),
		Tunnel: testTunnelConfig(),
	})
	require.NoError(t, err)
	defer conn.Close()

	require.NotNil(t, gw.remote)

	dst, err := cemi.ParseGroupAddr("1/2/7")
	require.NoError(t, err)
	msg := cemi.NewGroupReq(cemi.IndividualAddr(0x1105), dst, cemi.GroupValueWrite, []byte{0x01})

	send := func() {
		req := knxnet.TunnelReq{Channel: gw.channel, SeqNumber: 0, Payload: msg}
		gw.send(gw.remote, &req)
	}

	inbound := conn.Inbound()

	send()
	send()

	received := 0
	timeout := time.After(time.Second)
	for received < 1 {
		select {
		case <-inbound:
			received++
		case <-timeout:
			t.Fatal("timed out waiting for dispatched inbound message")
		}
	}

	// No second dispatch should follow within a short window.
	select {
	case <-inbound:
		t.Fatal("duplicate TUNNELING_REQUEST dispatched twice")
	case <-time.After(200 * time.Millisecond):
	}

	assert.Equal(t, 1, received)
}

// S7 — repeated heartbeat failures surface TunnelStalled through
// Handlers.Error.
func TestHeartbeatFailureSurfacesTunnelStalled(t *testing.T) {
	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))

	cfg := testTunnelConfig()
	cfg.HeartbeatInterval = 50 * time.Millisecond
	cfg.HeartbeatTimeout = 50 * time.Millisecond
	cfg.HeartbeatFailuresAllowed = 3
	cfg.DisconnectTimeout = 50 * time.Millisecond

	errs := make(chan error, 4)

	conn, err := Dial(ClientConfig{
		IPAddr: "127.0.0.1",
		IPPort: uint16(gw.port()),
		Tunnel: cfg,
		Handlers: Handlers{
			Error: func(err error) { errs <- err },
		},
	})
	require.NoError(t, err)
	defer conn.Close()

	gw.dropConnStateRes = true

	select {
	case err := <-errs:
		assert.IsType(t, TunnelStalled{}, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for TunnelStalled")
	}
}

// A datagram that fails to decode is dropped and surfaced as a
// MalformedFrame through Handlers.Error rather than crashing the
// connection or going unreported.
func TestMalformedDatagramSurfacesAsMalformedFrame(t *testing.T) {
	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))

	errs := make(chan error, 4)

	conn, err := Dial(ClientConfig{
		IPAddr: "127.0.0.1",
		IPPort: uint16(gw.port()),
		Tunnel: testTunnelConfig(),
		Handlers: Handlers{
			Error: func(err error) { errs <- err },
		},
	})
	require.NoError(t, err)
	defer conn.Close()

	gw.sendMalformedTunnelReq(gw.remote)

	select {
	case err := <-errs:
		assert.IsType(t, MalformedFrame{}, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for MalformedFrame")
	}

	assert.Equal(t, Connected, conn.state)
}

func TestWriteWhileDisconnectedIsProtocolError(t *testing.T) {
	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))

	conn, err := Dial(ClientConfig{
		IPAddr:        "127.0.0.1",
		IPPort:        uint16(gw.port()),
		Tunnel:        testTunnelConfig(),
		ManualConnect: true,
	})
	require.NoError(t, err)
	defer conn.Close()

	dst, err := cemi.ParseGroupAddr("1/2/3")
	require.NoError(t, err)
	req := cemi.NewGroupReq(cemi.IndividualAddr(0), dst, cemi.GroupValueWrite, []byte{0x01})

	writeErr := conn.Send(req)
	require.Error(t, writeErr)
	assert.IsType(t, ProtocolError{}, writeErr)
}

// MinimumDelay paces outbound telegrams: the gateway must not see a second
// TUNNELING_REQUEST less than ClientConfig.MinimumDelay after the first,
// even though nothing else (ack, window) would have held it back.
func TestMinimumDelayPacesOutboundWrites(t *testing.T) {
	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))

	var mu sync.Mutex
	var arrivals []time.Time
	gw.onTunnelReq = func(_ *fakeGateway, _ *knxnet.TunnelReq) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
	}

	const minDelay = 150 * time.Millisecond

	conn, err := Dial(ClientConfig{
		IPAddr:       "127.0.0.1",
		IPPort:       uint16(gw.port()),
		Tunnel:       testTunnelConfig(),
		MinimumDelay: minDelay,
	})
	require.NoError(t, err)
	defer conn.Close()

	dst, err := cemi.ParseGroupAddr("1/2/3")
	require.NoError(t, err)

	require.NoError(t, conn.Send(cemi.NewGroupReq(conn.SourceAddr(), dst, cemi.GroupValueWrite, []byte{0x00})))
	require.NoError(t, conn.Send(cemi.NewGroupReq(conn.SourceAddr(), dst, cemi.GroupValueWrite, []byte{0x01})))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, arrivals, 2)
	assert.GreaterOrEqual(t, arrivals[1].Sub(arrivals[0]), minDelay)
}

// A Connection fans inbound messages out to every subscriber returned by
// Inbound, not just whichever goroutine happens to read first.
func TestInboundFansOutToEverySubscriber(t *testing.T) {
	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))

	conn, err := Dial(ClientConfig{
		IPAddr: "127.0.0.1",
		IPPort: uint16(gw.port()),
		Tunnel: testTunnelConfig(),
	})
	require.NoError(t, err)
	defer conn.Close()

	require.NotNil(t, gw.remote)

	subA := conn.Inbound()
	subB := conn.Inbound()

	dst, err := cemi.ParseGroupAddr("1/2/9")
	require.NoError(t, err)
	msg := cemi.NewGroupReq(cemi.IndividualAddr(0x1105), dst, cemi.GroupValueWrite, []byte{0x01})
	req := knxnet.TunnelReq{Channel: gw.channel, SeqNumber: 0, Payload: msg}
	gw.send(gw.remote, &req)

	timeout := time.After(time.Second)
	for _, sub := range []<-chan cemi.Message{subA, subB} {
		select {
		case <-sub:
		case <-timeout:
			t.Fatal("subscriber never received the fanned-out message")
		}
	}
}
