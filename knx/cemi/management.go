// T_CONNECT and T_DISCONNECT requests are part of the Device Management
// service family and are used to establish and terminate point-to-point
// connections to KNX devices. See KNX Standard 03_08_03 Management.
//
// DeviceConnection (in the knx package) drives this transport-layer
// handshake: NewConnReq/NewAck/NewDiscReq build the frames it sends,
// unpackTransportUnit's ControlData branch decodes the T_ACK/T_NAK it
// waits on.

package cemi

// newManagementReq wraps a transport control unit in an L_Data.req between
// two individual addresses, the frame shape every T_CONNECT/T_DISCONNECT/
// T_ACK request shares.
func newManagementReq(control1 Control1, src, dst IndividualAddr, unit TransportUnit) *LDataReq {
	return &LDataReq{LData: LData{
		Control1:    control1,
		Control2:    Control2Hops(6),
		Source:      src,
		Destination: uint16(dst),
		Data:        unit,
	}}
}

// ControlConn represents a T_CONNECT ControlData structure.
type ControlConn struct {
	ControlData
}

// TConnect creates a new T_CONNECT ControlData structure.
func TConnect() *ControlConn {
	return &ControlConn{ControlData{Command: uint8(Connect)}}
}

// NewConnReq creates a new L_Data.req message with a T_CONNECT transport control field
// using the specified source and destination addresses.
func NewConnReq(src, dst IndividualAddr) *LDataReq {
	return newManagementReq(Control1StdFrame|Control1NoRepeat|Control1NoSysBroadcast, src, dst, TConnect())
}

// ControlDisc represents a T_DISCONNECT ControlData structure.
type ControlDisc struct {
	ControlData
}

// TDisconnect creates a new T_DISCONNECT ControlData structure.
func TDisconnect() *ControlDisc {
	return &ControlDisc{ControlData{Command: uint8(Disconnect)}}
}

// NewDiscReq creates a new L_Data.req message with a T_DISCONNECT transport control field
// using the specified source and destination addresses.
func NewDiscReq(src, dst IndividualAddr) *LDataReq {
	return newManagementReq(Control1StdFrame|Control1NoRepeat|Control1NoSysBroadcast, src, dst, TDisconnect())
}

// ControlAck represents a T_ACK ControlData structure.
type ControlAck struct {
	ControlData
}

// TAck creates a new T_ACK ControlData structure with the given sequence number.
func TAck(seqNumber uint8) *ControlAck {
	return &ControlAck{ControlData{Numbered: true, SeqNumber: seqNumber, Command: uint8(Ack)}}
}

// NewAck creates a new L_Data.req message with a T_ACK transport control field
// using the specified source and destination addresses and sequence number.
// Unlike T_CONNECT/T_DISCONNECT it is sent with L2 repetition allowed, since
// losing an ack silently stalls the remote side's retry logic.
func NewAck(src, dst IndividualAddr, seq uint8) *LDataReq {
	return newManagementReq(Control1StdFrame|Control1NoSysBroadcast, src, dst, TAck(seq))
}

// ControlNak represents a T_NAK ControlData structure.
type ControlNak struct {
	ControlData
}

// TNak creates a new T_NAK ControlData structure with the given sequence number.
func TNak(seqNumber uint8) *ControlNak {
	return &ControlNak{ControlData{Numbered: true, SeqNumber: seqNumber, Command: uint8(Nak)}}
}
