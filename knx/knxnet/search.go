// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"net"

	"github.com/knxkit/knxtunnel/knx/util"
)

// NewSearchReqExt creates a new SearchReqExt, addr defines where the
// KNXnet/IP server should send the response to.
func NewSearchReqExt(addr net.Addr) (*SearchReqExt, error) {
	hostinfo, err := HostInfoFromAddress(addr)
	if err != nil {
		return nil, err
	}
	return &SearchReqExt{Control: hostinfo}, nil
}

// SearchReqExt requests a description from a specific KNXnet/IP server over
// unicast, the addressed counterpart to DescriptionReq. DescribeTunnelExt
// is the only caller; the optional SRP parameter blocks the full protocol
// allows for multicast discovery filtering are not used here.
type SearchReqExt struct {
	Control HostInfo
}

// Service implements Service.
func (SearchReqExt) Service() ServiceID { return SearchReqExtService }

// Size returns the packed size.
func (req SearchReqExt) Size() uint { return req.Control.Size() }

// Pack assembles the Search Request Extended structure in the given buffer.
func (req *SearchReqExt) Pack(buffer []byte) { req.Control.Pack(buffer) }

// Unpack parses the given service payload in order to initialize the Search
// Request Extended structure.
func (req *SearchReqExt) Unpack(data []byte) (n uint, err error) {
	return util.UnpackSome(data, &req.Control)
}

// SearchResExt is a Search Response Extended from a KNXnet/IP server: the
// addressed counterpart to DescriptionRes, carrying the same DescriptionBlock.
type SearchResExt struct {
	Control      HostInfo
	DescriptionB DescriptionBlock
}

// Service implements Service.
func (SearchResExt) Service() ServiceID { return SearchResExtService }

// Size returns the packed size.
func (res SearchResExt) Size() uint {
	return res.Control.Size() + res.DescriptionB.DeviceHardware.Size() + res.DescriptionB.SupportedServices.Size()
}

// Pack assembles the Search Response Extended structure in the given buffer.
func (res *SearchResExt) Pack(buffer []byte) {
	offset := res.Control.Size()
	res.Control.Pack(buffer[:offset])
	util.PackSome(buffer[offset:], res.DescriptionB.DeviceHardware, res.DescriptionB.SupportedServices)
}

// Unpack parses the given service payload in order to initialize the Search
// Response Extended structure.
func (res *SearchResExt) Unpack(data []byte) (n uint, err error) {
	if n, err = util.UnpackSome(data, &res.Control); err != nil {
		return
	}

	nn, err := res.DescriptionB.Unpack(data[n:])
	if err != nil {
		return n, err
	}
	n += nn

	return n, nil
}
