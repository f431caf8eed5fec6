package dpt

// DPT_2001 is the 1 bit controlled datapoint type family (major 2): a
// priority/control bit plus the value bit it applies to.
type DPT_2001 struct {
	Control bool
	Value   bool
}

// Pack encodes control into bit 1 and value into bit 0.
func (d DPT_2001) Pack() ([]byte, error) {
	var b byte
	if d.Control {
		b |= 1 << 1
	}
	if d.Value {
		b |= 1 << 0
	}
	return []byte{b}, nil
}

// Unpack decodes a 2 bit control+value PDU.
func (d *DPT_2001) Unpack(data []byte) error {
	if len(data) != 1 {
		return DptLengthError{Dpt: "2.001", Length: len(data), Want: 1}
	}
	d.Control = data[0]&(1<<1) != 0
	d.Value = data[0]&(1<<0) != 0
	return nil
}

// BitLength implements BitLength.
func (DPT_2001) BitLength() uint { return 2 }

func init() {
	for _, id := range []string{"2.001", "2.002", "2.003", "2.010", "2.011"} {
		register(id, 2, func() DatapointValue { return &DPT_2001{} })
	}
}
