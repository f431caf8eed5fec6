package dpt

// DPT_15000 is the access data datapoint type (major 15): a 4 digit access
// code plus a detection/validity/permission bitfield, packed into 4 bytes.
type DPT_15000 struct {
	Digits     uint32 // decimal access code, 0000..9999
	Detection  bool   // E: detection error
	Permission bool   // P: permission accepted
	Direction  bool   // D: read (0) / write (1) direction
	Encrypted  bool   // C: encrypted
	Index      uint8  // 4 bit access identification code
}

// Pack encodes the access data PDU. The 4 decimal digits are packed one per
// nibble, most significant digit first, across the first two bytes.
func (d DPT_15000) Pack() ([]byte, error) {
	if d.Digits > 9999 {
		return nil, DptRangeError{Dpt: "15.000", Value: d.Digits, Range: "0000..9999"}
	}
	if d.Index > 0x0f {
		return nil, DptRangeError{Dpt: "15.000", Value: d.Index, Range: "0..15"}
	}

	d3 := (d.Digits / 1000) % 10
	d2 := (d.Digits / 100) % 10
	d1 := (d.Digits / 10) % 10
	d0 := d.Digits % 10

	buf := make([]byte, 4)
	buf[0] = byte(d3<<4 | d2)
	buf[1] = byte(d1<<4 | d0)

	if d.Detection {
		buf[3] |= 1 << 7
	}
	if d.Permission {
		buf[3] |= 1 << 6
	}
	if d.Direction {
		buf[3] |= 1 << 5
	}
	if d.Encrypted {
		buf[3] |= 1 << 4
	}
	buf[3] |= d.Index & 0x0f

	return buf, nil
}

// Unpack decodes an access data PDU.
func (d *DPT_15000) Unpack(data []byte) error {
	if len(data) != 4 {
		return DptLengthError{Dpt: "15.000", Length: len(data), Want: 4}
	}

	d3 := uint32(data[0] >> 4)
	d2 := uint32(data[0] & 0x0f)
	d1 := uint32(data[1] >> 4)
	d0 := uint32(data[1] & 0x0f)
	d.Digits = d3*1000 + d2*100 + d1*10 + d0

	d.Detection = data[3]&(1<<7) != 0
	d.Permission = data[3]&(1<<6) != 0
	d.Direction = data[3]&(1<<5) != 0
	d.Encrypted = data[3]&(1<<4) != 0
	d.Index = data[3] & 0x0f

	return nil
}

// BitLength implements BitLength.
func (DPT_15000) BitLength() uint { return 32 }

func init() {
	register("15.000", 32, func() DatapointValue { return &DPT_15000{} })
}
