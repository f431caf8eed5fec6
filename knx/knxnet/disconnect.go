// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import "github.com/knxkit/knxtunnel/knx/util"

// DiscReq is a Disconnect Request, sent by either side to cleanly tear
// down a connection.
type DiscReq struct {
	Channel uint8
	Control HostInfo
}

// Service implements Service.
func (DiscReq) Service() ServiceID { return DiscReqService }

// Size returns the packed size.
func (req DiscReq) Size() uint { return 2 + req.Control.Size() }

// Pack assembles the Disconnect Request structure in the given buffer.
func (req *DiscReq) Pack(buffer []byte) {
	util.PackSome(buffer, req.Channel, uint8(0))
	req.Control.Pack(buffer[2:])
}

// Unpack parses the given service payload in order to initialize the
// Disconnect Request structure.
func (req *DiscReq) Unpack(data []byte) (n uint, err error) {
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

// DiscRes is a Disconnect Response, the corresponding acknowledgement.
type DiscRes struct {
	Channel uint8
	Status  uint8
}

// Service implements Service.
func (DiscRes) Service() ServiceID { return DiscResService }

// Size returns the packed size.
func (DiscRes) Size() uint { return 2 }

// Pack assembles the Disconnect Response structure in the given buffer.
func (res *DiscRes) Pack(buffer []byte) {
	util.PackSome(buffer, res.Channel, res.Status)
}

// Unpack parses the given service payload in order to initialize the
// Disconnect Response structure.
func (res *DiscRes) Unpack(data []byte) (n uint, err error) {
	return util.UnpackSome(data, &res.Channel, &res.Status)
}
