// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"net"
	"sync"

	"github.com/knxkit/knxtunnel/knx/cemi"
	"github.com/knxkit/knxtunnel/knx/knxnet"
	"github.com/knxkit/knxtunnel/knx/util"
)

// RoutingConnection exchanges cEMI telegrams over KNXnet/IP routing: a
// multicast group with no CONNECT/DISCONNECT handshake and no heartbeat,
// per KNX standard 03_08_05. Every RoutingConnection on the group both
// sends and receives ROUTING_INDICATION frames.
type RoutingConnection struct {
	socket  *knxnet.Socket
	inbound chan cemi.Message
	logger  util.Logger

	closed    chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

// DialRouting joins the KNXnet/IP routing multicast group on iface (nil
// picks the system default) and starts relaying telegrams. An empty
// multicastAddr defaults to knxnet.DefaultRoutingMulticastAddr.
func DialRouting(multicastAddr string, iface *net.Interface, logger util.Logger) (*RoutingConnection, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	socket, err := knxnet.DialRouterUDP(multicastAddr, iface)
	if err != nil {
		return nil, err
	}

	rc := &RoutingConnection{
		socket:  socket,
		inbound: make(chan cemi.Message, 32),
		logger:  logger,
		closed:  make(chan struct{}),
		stopped: make(chan struct{}),
	}

	go rc.run()

	return rc, nil
}

// Inbound delivers the payload of every ROUTING_INDICATION received on the
// group, including ones this process itself sent (multicast loopback).
func (rc *RoutingConnection) Inbound() <-chan cemi.Message {
	return rc.inbound
}

// Send broadcasts msg as a ROUTING_INDICATION to the group. There is no
// acknowledgement at this layer; KNX routing relies on the data-link
// layer's own repetition for reliability.
func (rc *RoutingConnection) Send(msg cemi.Message) error {
	ind := knxnet.RoutingInd{Payload: msg}
	return rc.socket.Send(&ind)
}

// Close leaves the multicast group and stops relaying.
func (rc *RoutingConnection) Close() error {
	rc.closeOnce.Do(func() { close(rc.closed) })
	<-rc.stopped
	return rc.socket.Close()
}

func (rc *RoutingConnection) run() {
	defer close(rc.stopped)
	defer close(rc.inbound)

	for {
		select {
		case <-rc.closed:
			return

		case err := <-rc.socket.Errors():
			rc.logger.Printf("dropping malformed routing frame: %v", err)

		case srv, ok := <-rc.socket.Inbound():
			if !ok {
				return
			}

			ind, ok := srv.(*knxnet.RoutingInd)
			if !ok || ind.Payload == nil {
				continue
			}

			select {
			case rc.inbound <- ind.Payload:
			default:
				rc.logger.Printf("routing inbound channel full, discarding message: %T", ind.Payload)
			}
		}
	}
}
