// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"errors"
	"fmt"
	"net"

	"github.com/knxkit/knxtunnel/knx/util"
)

// Protocol identifies the transport protocol an HPAI describes.
type Protocol uint8

const (
	// UDP4 is UDP over IPv4, the only transport this package speaks.
	UDP4 Protocol = 0x01
	// TCP4 is TCP over IPv4. KNXnet/IP permits it for tunneling but this
	// package never dials it.
	TCP4 Protocol = 0x02
)

// Address is a 4 byte IPv4 address, as carried inline inside an HPAI.
type Address [4]byte

// Size implements Sizable.
func (Address) Size() uint { return 4 }

// Pack implements Packable.
func (a *Address) Pack(buffer []byte) { copy(buffer, a[:]) }

// Unpack implements Unpackable.
func (a *Address) Unpack(data []byte) (uint, error) {
	if len(data) < 4 {
		return 0, errors.New("knxnet: address too short")
	}
	copy(a[:], data[:4])
	return 4, nil
}

func (a Address) String() string {
	return net.IP(a[:]).String()
}

// HostInfo is the Host Protocol Address Information (HPAI) structure: a
// transport protocol plus the address and port a peer should use to reach
// the sender.
type HostInfo struct {
	Protocol Protocol
	Address  Address
	Port     uint16
}

// HostInfoFromAddress builds a HostInfo describing addr, which must be a
// *net.UDPAddr with an IPv4 address.
func HostInfoFromAddress(addr net.Addr) (HostInfo, error) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return HostInfo{}, fmt.Errorf("knxnet: %T is not a UDP address", addr)
	}

	ip4 := udpAddr.IP.To4()
	if ip4 == nil {
		return HostInfo{}, errors.New("knxnet: address is not IPv4")
	}

	var info HostInfo
	info.Protocol = UDP4
	copy(info.Address[:], ip4)
	info.Port = uint16(udpAddr.Port)

	return info, nil
}

// Size returns the packed size.
func (HostInfo) Size() uint { return 8 }

// Pack assembles the HPAI structure in the given buffer.
func (info *HostInfo) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(info.Size()), uint8(info.Protocol),
		info.Address[:], info.Port,
	)
}

// Unpack parses the given data in order to initialize the HPAI structure.
func (info *HostInfo) Unpack(data []byte) (n uint, err error) {
	var length uint8

	if n, err = util.UnpackSome(
		data,
		&length, (*uint8)(&info.Protocol),
		info.Address[:], &info.Port,
	); err != nil {
		return
	}

	if length != uint8(info.Size()) {
		return n, errors.New("knxnet: invalid length for HPAI structure")
	}

	return
}

// Addr returns the UDP address described by this HostInfo.
func (info HostInfo) Addr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.IP(info.Address[:]), Port: int(info.Port)}
}
