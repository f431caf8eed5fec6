// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"errors"

	"github.com/knxkit/knxtunnel/knx/cemi"
	"github.com/knxkit/knxtunnel/knx/util"
)

// ConnType identifies the kind of logical connection requested inside a
// Connect Request.
type ConnType uint8

const (
	// TunnelConnection requests a Tunneling connection.
	TunnelConnection ConnType = 0x04
	// DeviceMgmtConnection requests a Device Management (point-to-point)
	// connection.
	DeviceMgmtConnection ConnType = 0x03
)

// TunnelLayer identifies the cEMI layer a Tunneling connection operates at.
type TunnelLayer uint8

const (
	// TunnelLayerData is Tunneling Link Layer mode, the one this package
	// implements: cEMI L_Data frames go back and forth unmodified.
	TunnelLayerData TunnelLayer = 0x02
)

// ConnReq is a Connect Request: the client asks the server to open a new
// logical connection, describing on which socket it expects control and
// data traffic and what kind of connection it wants.
type ConnReq struct {
	Control HostInfo
	Data    HostInfo
	Type    ConnType
	Layer   TunnelLayer
}

// NewTunnelConnReq builds a Connect Request for a Tunneling connection,
// where control and data traffic share the same local socket.
func NewTunnelConnReq(local HostInfo) ConnReq {
	return ConnReq{Control: local, Data: local, Type: TunnelConnection, Layer: TunnelLayerData}
}

// Service implements Service.
func (ConnReq) Service() ServiceID { return ConnReqService }

// Size returns the packed size.
func (ConnReq) Size() uint { return 8 + 8 + 4 }

// Pack assembles the Connect Request structure in the given buffer.
func (req *ConnReq) Pack(buffer []byte) {
	req.Control.Pack(buffer)
	req.Data.Pack(buffer[req.Control.Size():])

	util.PackSome(
		buffer[req.Control.Size()+req.Data.Size():],
		uint8(4), uint8(req.Type), uint8(req.Layer), uint8(0),
	)
}

// Unpack parses the given service payload in order to initialize the
// Connect Request structure.
func (req *ConnReq) Unpack(data []byte) (n uint, err error) {
	if n, err = util.UnpackSome(data, &req.Control, &req.Data); err != nil {
		return
	}

	var length, reserved uint8
	nn, err := util.UnpackSome(data[n:], &length, (*uint8)(&req.Type), (*uint8)(&req.Layer), &reserved)
	if err != nil {
		return n, err
	}
	n += nn

	if length != 4 {
		return n, errors.New("knxnet: invalid CRI length")
	}

	return n, nil
}

// ConnResStatus reports the outcome of a Connect Request.
type ConnResStatus uint8

const (
	// ConnResOk means the connection was established.
	ConnResOk ConnResStatus = 0x00
	// ConnResUnsupportedType means the server does not support the
	// requested connection type.
	ConnResUnsupportedType ConnResStatus = 0x22
	// ConnResUnsupportedOption means the server does not support one of
	// the requested options.
	ConnResUnsupportedOption ConnResStatus = 0x23
	// ConnResNoMoreConnections means the server has no free connection
	// slots left.
	ConnResNoMoreConnections ConnResStatus = 0x24
)

func (s ConnResStatus) String() string {
	switch s {
	case ConnResOk:
		return "ok"
	case ConnResUnsupportedType:
		return "unsupported connection type"
	case ConnResUnsupportedOption:
		return "unsupported connection option"
	case ConnResNoMoreConnections:
		return "no more connections"
	default:
		return "unknown status"
	}
}

// ConnRes is a Connect Response: the server's reply to a Connect Request,
// carrying the new channel id and, on success, the data endpoint to send
// Tunneling frames to and the individual address assigned to the tunnel.
type ConnRes struct {
	Channel uint8
	Status  ConnResStatus
	Data    HostInfo
	Address cemi.IndividualAddr
}

// Service implements Service.
func (ConnRes) Service() ServiceID { return ConnResService }

// Size returns the packed size.
func (res ConnRes) Size() uint {
	if res.Status != ConnResOk {
		return 2
	}
	return 2 + res.Data.Size() + 4
}

// Pack assembles the Connect Response structure in the given buffer.
func (res *ConnRes) Pack(buffer []byte) {
	util.PackSome(buffer, res.Channel, uint8(res.Status))

	if res.Status != ConnResOk {
		return
	}

	res.Data.Pack(buffer[2:])
	util.PackSome(buffer[2+res.Data.Size():], uint8(4), uint8(TunnelConnection), uint16(res.Address))
}

// Unpack parses the given service payload in order to initialize the
// Connect Response structure.
func (res *ConnRes) Unpack(data []byte) (n uint, err error) {
	if n, err = util.UnpackSome(data, &res.Channel, (*uint8)(&res.Status)); err != nil {
		return
	}

	if res.Status != ConnResOk {
		return n, nil
	}

	nn, err := util.UnpackSome(data[n:], &res.Data)
	if err != nil {
		return n, err
	}
	n += nn

	var length, connType uint8
	nn, err = util.UnpackSome(data[n:], &length, &connType, (*uint16)(&res.Address))
	if err != nil {
		return n, err
	}
	n += nn

	return n, nil
}
