// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import "github.com/knxkit/knxtunnel/knx/util"

// ConnStateReq is a Connectionstate Request, the heartbeat the client sends
// to keep its connection alive.
type ConnStateReq struct {
	Channel uint8
	Control HostInfo
}

// Service implements Service.
func (ConnStateReq) Service() ServiceID { return ConnStateReqService }

// Size returns the packed size.
func (req ConnStateReq) Size() uint { return 2 + req.Control.Size() }

// Pack assembles the Connectionstate Request structure in the given buffer.
func (req *ConnStateReq) Pack(buffer []byte) {
	util.PackSome(buffer, req.Channel, uint8(0))
	req.Control.Pack(buffer[2:])
}

// Unpack parses the given service payload in order to initialize the
// Connectionstate Request structure.
func (req *ConnStateReq) Unpack(data []byte) (n uint, err error) {
	var reserved uint8
	if n, err = util.UnpackSome(data, &req.Channel, &reserved); err != nil {
		return
	}

	nn, err := util.UnpackSome(data[n:], &req.Control)
	if err != nil {
		return n, err
	}
	n += nn

	return n, nil
}

// ConnStateResStatus reports the outcome of a Connectionstate Request.
type ConnStateResStatus uint8

const (
	// ConnStateResOk means the connection is still alive.
	ConnStateResOk ConnStateResStatus = 0x00
	// ConnStateResInactive means the channel id does not refer to an
	// active connection.
	ConnStateResInactive ConnStateResStatus = 0x21
)

func (s ConnStateResStatus) String() string {
	if s == ConnStateResOk {
		return "ok"
	}
	return "inactive connection"
}

// ConnStateRes is a Connectionstate Response, the server's reply to a
// heartbeat.
type ConnStateRes struct {
	Channel uint8
	Status  ConnStateResStatus
}

// Service implements Service.
func (ConnStateRes) Service() ServiceID { return ConnStateResService }

// Size returns the packed size.
func (ConnStateRes) Size() uint { return 2 }

// Pack assembles the Connectionstate Response structure in the given buffer.
func (res *ConnStateRes) Pack(buffer []byte) {
	util.PackSome(buffer, res.Channel, uint8(res.Status))
}

// Unpack parses the given service payload in order to initialize the
// Connectionstate Response structure.
func (res *ConnStateRes) Unpack(data []byte) (n uint, err error) {
	return util.UnpackSome(data, &res.Channel, (*uint8)(&res.Status))
}
