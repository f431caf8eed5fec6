package cemi

// NewGroupReq builds an L_Data.req carrying a GroupValue_* telegram addressed
// to a group address. npdu is the already-encoded transport payload: the
// caller decides, based on the datapoint's bit width, whether that is a
// single byte holding a value in its low 6 bits or a leading pad byte
// followed by the application data (see the knx package's EncodeNPDU).
func NewGroupReq(src IndividualAddr, dst GroupAddr, apci APCI, npdu []byte) *LDataReq {
	ldata := LData{
		Control1:    Control1StdFrame | Control1NoRepeat | Control1NoSysBroadcast | Control1Prio(PrioLow),
		Control2:    Control2GroupAddr | Control2Hops(6),
		Source:      src,
		Destination: uint16(dst),
		Data:        &AppData{Command: apci, Data: npdu},
	}

	return &LDataReq{LData: ldata}
}

// GroupValue extracts the APCI and raw transport payload from a TransportUnit
// carried by an L_Data message. ok is false if unit does not carry
// application data (e.g. it is a T_ACK/T_NAK/T_CONNECT control unit).
func GroupValue(unit TransportUnit) (apci APCI, npdu []byte, ok bool) {
	app, isApp := unit.(*AppData)
	if !isApp {
		return 0, nil, false
	}

	return app.Command, app.Data, true
}

// IsGroupDestined reports whether an LData's destination is a group address.
func (ld *LData) IsGroupDestined() bool {
	return ld.Control2.IsGroupAddr()
}

// GroupDestination interprets the Destination field as a GroupAddr. Callers
// should check IsGroupDestined first.
func (ld *LData) GroupDestination() GroupAddr {
	return GroupAddr(ld.Destination)
}

// IndividualDestination interprets the Destination field as an IndividualAddr.
// Callers should check IsGroupDestined first.
func (ld *LData) IndividualDestination() IndividualAddr {
	return IndividualAddr(ld.Destination)
}
