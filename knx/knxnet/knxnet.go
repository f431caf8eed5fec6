// Licensed under the MIT license which can be found in the LICENSE file.

// Package knxnet implements the KNXnet/IP framing layer: the 6 byte header
// every service payload is wrapped in, and the service payloads themselves
// (connection management, tunneling, routing and discovery).
package knxnet

import (
	"errors"
	"fmt"

	"github.com/knxkit/knxtunnel/knx/util"
)

// protocolVersion10 is the only KNXnet/IP protocol version this package
// speaks.
const protocolVersion10 = 0x10

// headerLength is the fixed length of the KNXnet/IP frame header.
const headerLength = 6

// ServiceID identifies the service payload carried by a frame.
type ServiceID uint16

// Service identifiers. SearchReqService, SearchResService,
// RoutingLostService and RoutingBusyService have no payload type in this
// package; Unpack returns a nil payload for them.
const (
	SearchReqService    ServiceID = 0x0201
	SearchResService    ServiceID = 0x0202
	SearchReqExtService ServiceID = 0x020b
	SearchResExtService ServiceID = 0x020c

	DescriptionReqService ServiceID = 0x0203
	DescriptionResService ServiceID = 0x0204

	ConnReqService ServiceID = 0x0205
	ConnResService ServiceID = 0x0206

	ConnStateReqService ServiceID = 0x0207
	ConnStateResService ServiceID = 0x0208

	DiscReqService ServiceID = 0x0209
	DiscResService ServiceID = 0x020a

	TunnelReqService ServiceID = 0x0420
	TunnelResService ServiceID = 0x0421

	RoutingIndService ServiceID = 0x0530
	RoutingLostService ServiceID = 0x0531
	RoutingBusyService ServiceID = 0x0532
)

func (id ServiceID) String() string {
	switch id {
	case SearchReqService:
		return "SearchReq"
	case SearchResService:
		return "SearchRes"
	case SearchReqExtService:
		return "SearchReqExt"
	case SearchResExtService:
		return "SearchResExt"
	case DescriptionReqService:
		return "DescriptionReq"
	case DescriptionResService:
		return "DescriptionRes"
	case ConnReqService:
		return "ConnReq"
	case ConnResService:
		return "ConnRes"
	case ConnStateReqService:
		return "ConnStateReq"
	case ConnStateResService:
		return "ConnStateRes"
	case DiscReqService:
		return "DiscReq"
	case DiscResService:
		return "DiscRes"
	case TunnelReqService:
		return "TunnelReq"
	case TunnelResService:
		return "TunnelRes"
	case RoutingIndService:
		return "RoutingInd"
	case RoutingLostService:
		return "RoutingLost"
	case RoutingBusyService:
		return "RoutingBusy"
	default:
		return fmt.Sprintf("ServiceID(0x%04x)", uint16(id))
	}
}

// Service is implemented by every KNXnet/IP service payload.
type Service interface {
	util.Packable
	util.Sizable

	// Service returns the identifier the frame header should carry for
	// this payload.
	Service() ServiceID
}

// Pack assembles a complete frame (header plus payload) for the given
// service into buffer, which must be at least headerLength+srv.Size() long.
func Pack(buffer []byte, srv Service) {
	util.PackSome(
		buffer,
		uint8(headerLength), uint8(protocolVersion10),
		uint16(srv.Service()), uint16(headerLength+srv.Size()),
	)
	srv.Pack(buffer[headerLength:])
}

// Unpack parses a complete frame, dispatching to the service payload that
// matches the header's service identifier. It returns the service id (so
// that callers can recognize unknown/unsupported services) and the decoded
// payload, which is nil for unsupported services.
func Unpack(data []byte) (id ServiceID, srv Service, err error) {
	var length, version uint8
	var size uint16

	n, err := util.UnpackSome(data, &length, &version, (*uint16)(&id), &size)
	if err != nil {
		return 0, nil, err
	}

	if length != headerLength {
		return id, nil, errors.New("knxnet: invalid header length")
	}
	if version != protocolVersion10 {
		return id, nil, fmt.Errorf("knxnet: unsupported protocol version 0x%02x", version)
	}
	if uint(size) != uint(len(data)) {
		return id, nil, fmt.Errorf("knxnet: frame length mismatch: header says %d, got %d", size, len(data))
	}

	payload := data[n:]

	switch id {
	case SearchReqExtService:
		srv = &SearchReqExt{}
	case SearchResExtService:
		srv = &SearchResExt{}
	case DescriptionReqService:
		srv = &DescriptionReq{}
	case DescriptionResService:
		srv = &DescriptionRes{}
	case ConnReqService:
		srv = &ConnReq{}
	case ConnResService:
		srv = &ConnRes{}
	case ConnStateReqService:
		srv = &ConnStateReq{}
	case ConnStateResService:
		srv = &ConnStateRes{}
	case DiscReqService:
		srv = &DiscReq{}
	case DiscResService:
		srv = &DiscRes{}
	case TunnelReqService:
		srv = &TunnelReq{}
	case TunnelResService:
		srv = &TunnelRes{}
	case RoutingIndService:
		srv = &RoutingInd{}
	default:
		return id, nil, nil
	}

	if _, err := srv.(util.Unpackable).Unpack(payload); err != nil {
		return id, nil, err
	}

	return id, srv, nil
}
