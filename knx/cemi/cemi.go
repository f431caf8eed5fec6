// Copyright 2017 Ole Krüger.
// Licensed under the MIT license which can be found in the LICENSE file.

// Package cemi implements the Common External Message Interface: the
// media-independent telegram format carried inside KNXnet/IP tunneling and
// routing frames.
package cemi

import (
	"fmt"
	"io"

	"github.com/knxkit/knxtunnel/knx/util"
)

// MessageCode identifies the kind of cEMI message (L_Data.req, .con, .ind, ...).
type MessageCode uint8

// Message codes used by the tunneling/routing data path.
const (
	LDataReqCode MessageCode = 0x11
	LDataConCode MessageCode = 0x2E
	LDataIndCode MessageCode = 0x29
)

// String describes the message code.
func (mc MessageCode) String() string {
	switch mc {
	case LDataReqCode:
		return "L_Data.req"
	case LDataConCode:
		return "L_Data.con"
	case LDataIndCode:
		return "L_Data.ind"
	default:
		return fmt.Sprintf("MessageCode(0x%02x)", uint8(mc))
	}
}

// Control1 is the first control octet of an L_Data frame.
type Control1 uint8

// Control1 bit flags. Layout (MSB to LSB): frame type, reserved, no-repeat,
// no-system-broadcast, priority (2 bits), want-ack, has-error.
const (
	Control1StdFrame       Control1 = 1 << 7
	Control1NoRepeat       Control1 = 1 << 5
	Control1NoSysBroadcast Control1 = 1 << 4
	Control1WantAck        Control1 = 1 << 1
	Control1HasError       Control1 = 1 << 0
)

// Priority is the KNX telegram priority.
type Priority uint8

// Telegram priorities, highest (System) to lowest (Low).
const (
	PrioSystem Priority = 0
	PrioNormal Priority = 1
	PrioUrgent Priority = 2
	PrioLow    Priority = 3
)

// Control1Prio packs a Priority into its Control1 bit position.
func Control1Prio(p Priority) Control1 {
	return Control1(p&0x03) << 2
}

// Prio extracts the priority encoded in Control1.
func (c1 Control1) Prio() Priority {
	return Priority(c1>>2) & 0x03
}

// HasError reports whether the confirmation bit signals a negative confirmation.
func (c1 Control1) HasError() bool {
	return c1&Control1HasError != 0
}

// Control2 is the second control octet of an L_Data frame: destination
// address type and hop count.
type Control2 uint8

// Control2GroupAddr marks the destination as a group address; when unset the
// destination is an individual address.
const Control2GroupAddr Control2 = 1 << 7

// Control2Hops packs a hop count (0..7) into its Control2 bit position.
func Control2Hops(n uint8) Control2 {
	return Control2(n&0x07) << 4
}

// Hops extracts the hop count encoded in Control2.
func (c2 Control2) Hops() uint8 {
	return uint8(c2>>4) & 0x07
}

// IsGroupAddr reports whether Control2 marks the destination as a group address.
func (c2 Control2) IsGroupAddr() bool {
	return c2&Control2GroupAddr != 0
}

// LData is the data-link layer payload shared by L_Data.req/.con/.ind messages.
type LData struct {
	Control1    Control1
	Control2    Control2
	Source      IndividualAddr
	Destination uint16 // interpreted as GroupAddr or IndividualAddr per Control2
	Data        TransportUnit
	AddInfo     []byte // additional info block, usually empty
}

// Size returns the packed size.
func (ld *LData) Size() uint {
	size := uint(1 + len(ld.AddInfo) + 2 + 4)
	if s, ok := ld.Data.(interface{ Size() uint }); ok {
		size += s.Size()
	} else {
		size++
	}
	return size
}

// Pack assembles the L_Data structure in the given buffer.
func (ld *LData) Pack(buffer []byte) {
	buffer[0] = uint8(len(ld.AddInfo))
	offset := 1

	copy(buffer[offset:], ld.AddInfo)
	offset += len(ld.AddInfo)

	buffer[offset] = uint8(ld.Control1)
	buffer[offset+1] = uint8(ld.Control2)
	offset += 2

	util.PackSome(buffer[offset:], uint16(ld.Source), ld.Destination)
	offset += 4

	ld.Data.Pack(buffer[offset:])
}

// Unpack parses the given data in order to initialize the L_Data structure.
// It tolerates an arbitrary length additional-info block.
func (ld *LData) Unpack(data []byte) (n uint, err error) {
	if len(data) < 1 {
		return 0, io.ErrUnexpectedEOF
	}

	addlLen := int(data[0])
	if len(data) < 1+addlLen+6 {
		return 0, io.ErrUnexpectedEOF
	}

	ld.AddInfo = append([]byte(nil), data[1:1+addlLen]...)
	offset := 1 + addlLen

	ld.Control1 = Control1(data[offset])
	ld.Control2 = Control2(data[offset+1])
	offset += 2

	var source uint16
	nn, err := util.UnpackSome(data[offset:], &source, &ld.Destination)
	if err != nil {
		return 0, err
	}
	ld.Source = IndividualAddr(source)
	offset += int(nn)

	var unit TransportUnit
	consumed, err := unpackTransportUnit(data[offset:], &unit)
	if err != nil {
		return 0, err
	}
	ld.Data = unit
	offset += int(consumed)

	return uint(offset), nil
}

// Message is a full cEMI telegram: a message code plus its payload.
type Message interface {
	util.Packable
	Size() uint
	MessageCode() MessageCode
}

// LDataReq is an L_Data.req message: a request to send a telegram.
type LDataReq struct{ LData }

// MessageCode implements Message.
func (*LDataReq) MessageCode() MessageCode { return LDataReqCode }

// Size implements Message.
func (r *LDataReq) Size() uint { return 1 + r.LData.Size() }

// Pack implements Message.
func (r *LDataReq) Pack(buffer []byte) {
	buffer[0] = uint8(LDataReqCode)
	r.LData.Pack(buffer[1:])
}

// Unpack parses the given data, expecting an L_Data.req message code.
func (r *LDataReq) Unpack(data []byte) (n uint, err error) {
	if len(data) < 1 || MessageCode(data[0]) != LDataReqCode {
		return 0, fmt.Errorf("cemi: expected L_Data.req message code")
	}
	nn, err := r.LData.Unpack(data[1:])
	return nn + 1, err
}

// LDataCon is an L_Data.con message: local confirmation of a sent telegram.
type LDataCon struct{ LData }

// MessageCode implements Message.
func (*LDataCon) MessageCode() MessageCode { return LDataConCode }

// Size implements Message.
func (c *LDataCon) Size() uint { return 1 + c.LData.Size() }

// Pack implements Message.
func (c *LDataCon) Pack(buffer []byte) {
	buffer[0] = uint8(LDataConCode)
	c.LData.Pack(buffer[1:])
}

// Unpack parses the given data, expecting an L_Data.con message code.
func (c *LDataCon) Unpack(data []byte) (n uint, err error) {
	if len(data) < 1 || MessageCode(data[0]) != LDataConCode {
		return 0, fmt.Errorf("cemi: expected L_Data.con message code")
	}
	nn, err := c.LData.Unpack(data[1:])
	return nn + 1, err
}

// LDataInd is an L_Data.ind message: an inbound telegram indication.
type LDataInd struct{ LData }

// MessageCode implements Message.
func (*LDataInd) MessageCode() MessageCode { return LDataIndCode }

// Size implements Message.
func (i *LDataInd) Size() uint { return 1 + i.LData.Size() }

// Pack implements Message.
func (i *LDataInd) Pack(buffer []byte) {
	buffer[0] = uint8(LDataIndCode)
	i.LData.Pack(buffer[1:])
}

// Unpack parses the given data, expecting an L_Data.ind message code.
func (i *LDataInd) Unpack(data []byte) (n uint, err error) {
	if len(data) < 1 || MessageCode(data[0]) != LDataIndCode {
		return 0, fmt.Errorf("cemi: expected L_Data.ind message code")
	}
	nn, err := i.LData.Unpack(data[1:])
	return nn + 1, err
}

// Unpack parses a full cEMI telegram, dispatching on its message code.
func Unpack(data []byte) (Message, error) {
	if len(data) < 1 {
		return nil, io.ErrUnexpectedEOF
	}

	switch MessageCode(data[0]) {
	case LDataReqCode:
		m := &LDataReq{}
		if _, err := m.Unpack(data); err != nil {
			return nil, err
		}
		return m, nil

	case LDataConCode:
		m := &LDataCon{}
		if _, err := m.Unpack(data); err != nil {
			return nil, err
		}
		return m, nil

	case LDataIndCode:
		m := &LDataInd{}
		if _, err := m.Unpack(data); err != nil {
			return nil, err
		}
		return m, nil

	default:
		return nil, fmt.Errorf("cemi: unsupported message code 0x%02x", data[0])
	}
}

// Pack assembles a full cEMI telegram into a freshly allocated buffer.
func Pack(msg Message) []byte {
	buffer := make([]byte, msg.Size())
	msg.Pack(buffer)
	return buffer
}
