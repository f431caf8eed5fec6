// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"net"

	"golang.org/x/net/ipv4"
)

// DefaultRoutingMulticastAddr is the well-known multicast group KNXnet/IP
// routing traffic is exchanged on.
const DefaultRoutingMulticastAddr = "224.0.23.12:3671"

// inboundQueueLen bounds how many decoded frames a socket buffers before
// the reader goroutine starts blocking on the receiver.
const inboundQueueLen = 32

// errQueueLen bounds how many decode errors a socket buffers. Errors are
// diagnostic, not data, so while the queue is full each new error is
// discarded rather than blocking the reader.
const errQueueLen = 8

// Socket is a UDP endpoint that speaks the KNXnet/IP framing layer: Send
// packs and writes a Service, Inbound delivers decoded Services as they
// arrive.
type Socket struct {
	conn    *net.UDPConn
	remote  *net.UDPAddr
	inbound chan Service
	errs    chan error
	closed  chan struct{}
}

// DialTunnelUDP opens a unicast UDP socket for tunneling and discovery,
// connected to the given gateway address ("host:port").
func DialTunnelUDP(address string) (*Socket, error) {
	remote, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, err
	}

	return newSocket(conn, remote), nil
}

// DialRouterUDP opens a multicast UDP socket for routing, joining the
// KNXnet/IP routing group on the given local interface. An empty
// multicastAddr defaults to DefaultRoutingMulticastAddr.
func DialRouterUDP(multicastAddr string, iface *net.Interface) (*Socket, error) {
	if multicastAddr == "" {
		multicastAddr = DefaultRoutingMulticastAddr
	}

	group, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: group.Port})
	if err != nil {
		return nil, err
	}

	pc := ipv4.NewPacketConn(conn)
	if err := pc.JoinGroup(iface, &net.UDPAddr{IP: group.IP}); err != nil {
		conn.Close()
		return nil, err
	}
	if err := pc.SetMulticastLoopback(true); err != nil {
		conn.Close()
		return nil, err
	}

	return newSocket(conn, group), nil
}

func newSocket(conn *net.UDPConn, remote *net.UDPAddr) *Socket {
	socket := &Socket{
		conn:    conn,
		remote:  remote,
		inbound: make(chan Service, inboundQueueLen),
		errs:    make(chan error, errQueueLen),
		closed:  make(chan struct{}),
	}

	go socket.serve()

	return socket
}

func (socket *Socket) serve() {
	defer close(socket.inbound)

	buffer := make([]byte, 1024)

	for {
		n, _, err := socket.conn.ReadFromUDP(buffer)
		if err != nil {
			return
		}

		_, srv, err := Unpack(buffer[:n])
		if err != nil {
			select {
			case socket.errs <- err:
			default:
				// Diagnostic queue full; the frame is already dropped
				// either way.
			}
			continue
		}
		if srv == nil {
			continue
		}

		select {
		case socket.inbound <- srv:
		case <-socket.closed:
			return
		}
	}
}

// Send packs and writes srv to the socket's remote endpoint.
func (socket *Socket) Send(srv Service) error {
	buffer := make([]byte, headerLength+srv.Size())
	Pack(buffer, srv)

	_, err := socket.conn.WriteToUDP(buffer, socket.remote)
	return err
}

// Inbound returns the channel decoded services are delivered on. It is
// closed once the underlying socket is closed or encounters a read error.
func (socket *Socket) Inbound() <-chan Service {
	return socket.inbound
}

// Errors returns the channel decode failures for inbound datagrams are
// reported on. Unlike Inbound, it is never closed; callers select on it
// alongside Inbound and closed.
func (socket *Socket) Errors() <-chan error {
	return socket.errs
}

// LocalAddr returns the socket's local UDP address, suitable for building
// an HPAI to advertise to the remote side.
func (socket *Socket) LocalAddr() net.Addr {
	return socket.conn.LocalAddr()
}

// Close releases the socket and stops the reader goroutine.
func (socket *Socket) Close() error {
	select {
	case <-socket.closed:
	default:
		close(socket.closed)
	}
	return socket.conn.Close()
}
