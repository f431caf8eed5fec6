// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"errors"

	"github.com/knxkit/knxtunnel/knx/cemi"
	"github.com/knxkit/knxtunnel/knx/util"
)

// connHeaderLength is the fixed length of the connection header that
// prefixes both Tunneling Request and Tunneling Ack payloads.
const connHeaderLength = 4

// TunnelReq is a Tunneling Request: one sequence-numbered cEMI frame
// traveling between client and server.
type TunnelReq struct {
	Channel   uint8
	SeqNumber uint8
	Payload   cemi.Message
}

// Service implements Service.
func (TunnelReq) Service() ServiceID { return TunnelReqService }

// Size returns the packed size.
func (req TunnelReq) Size() uint {
	size := uint(connHeaderLength)
	if req.Payload != nil {
		size += req.Payload.Size()
	}
	return size
}

// Pack assembles the Tunneling Request structure in the given buffer.
func (req *TunnelReq) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(connHeaderLength), req.Channel, req.SeqNumber, uint8(0),
	)
	if req.Payload != nil {
		req.Payload.Pack(buffer[connHeaderLength:])
	}
}

// Unpack parses the given service payload in order to initialize the
// Tunneling Request structure.
func (req *TunnelReq) Unpack(data []byte) (n uint, err error) {
	var length, reserved uint8
	if n, err = util.UnpackSome(data, &length, &req.Channel, &req.SeqNumber, &reserved); err != nil {
		return
	}
	if length != connHeaderLength {
		return n, errors.New("knxnet: invalid tunneling connection header length")
	}

	msg, err := cemi.Unpack(data[n:])
	if err != nil {
		return n, err
	}
	req.Payload = msg
	n += msg.Size()

	return n, nil
}

// TunnelAckStatus reports whether a Tunneling Request was accepted.
type TunnelAckStatus uint8

const (
	// TunnelAckOk means the frame was accepted.
	TunnelAckOk TunnelAckStatus = 0x00
	// TunnelAckError means the frame was rejected, e.g. a sequence
	// number mismatch.
	TunnelAckError TunnelAckStatus = 0x29
)

// TunnelRes is a Tunneling Ack: the acknowledgement for a single Tunneling
// Request, matched to it by channel and sequence number.
type TunnelRes struct {
	Channel   uint8
	SeqNumber uint8
	Status    TunnelAckStatus
}

// Service implements Service.
func (TunnelRes) Service() ServiceID { return TunnelResService }

// Size returns the packed size.
func (TunnelRes) Size() uint { return connHeaderLength }

// Pack assembles the Tunneling Ack structure in the given buffer.
func (res *TunnelRes) Pack(buffer []byte) {
	util.PackSome(buffer, uint8(connHeaderLength), res.Channel, res.SeqNumber, uint8(res.Status))
}

// Unpack parses the given service payload in order to initialize the
// Tunneling Ack structure.
func (res *TunnelRes) Unpack(data []byte) (n uint, err error) {
	var length uint8
	if n, err = util.UnpackSome(data, &length, &res.Channel, &res.SeqNumber, (*uint8)(&res.Status)); err != nil {
		return
	}
	if length != connHeaderLength {
		return n, errors.New("knxnet: invalid tunneling connection header length")
	}
	return n, nil
}

// RoutingInd is a Routing Indication: a cEMI frame broadcast to the
// multicast routing group, with no acknowledgement and no sequence number.
type RoutingInd struct {
	Payload cemi.Message
}

// Service implements Service.
func (RoutingInd) Service() ServiceID { return RoutingIndService }

// Size returns the packed size.
func (ind RoutingInd) Size() uint {
	if ind.Payload == nil {
		return 0
	}
	return ind.Payload.Size()
}

// Pack assembles the Routing Indication structure in the given buffer.
func (ind *RoutingInd) Pack(buffer []byte) {
	if ind.Payload != nil {
		ind.Payload.Pack(buffer)
	}
}

// Unpack parses the given service payload in order to initialize the
// Routing Indication structure.
func (ind *RoutingInd) Unpack(data []byte) (n uint, err error) {
	msg, err := cemi.Unpack(data)
	if err != nil {
		return 0, err
	}
	ind.Payload = msg
	return msg.Size(), nil
}
