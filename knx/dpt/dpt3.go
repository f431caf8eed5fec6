package dpt

// DPT_3007 is the 4 bit dim control datapoint type family (major 3):
// a direction/control bit plus a 3 bit step code.
type DPT_3007 struct {
	Control  bool
	StepCode uint8 // 0..7
}

// Pack encodes the value as (control<<3)|stepCode.
func (d DPT_3007) Pack() ([]byte, error) {
	if d.StepCode > 7 {
		return nil, DptRangeError{Dpt: "3.007", Value: d.StepCode, Range: "0..7"}
	}
	var b byte
	if d.Control {
		b |= 1 << 3
	}
	b |= d.StepCode & 0x07
	return []byte{b}, nil
}

// Unpack decodes a 4 bit control+step-code PDU.
func (d *DPT_3007) Unpack(data []byte) error {
	if len(data) != 1 {
		return DptLengthError{Dpt: "3.007", Length: len(data), Want: 1}
	}
	d.Control = data[0]&(1<<3) != 0
	d.StepCode = data[0] & 0x07
	return nil
}

// BitLength implements BitLength.
func (DPT_3007) BitLength() uint { return 4 }

func init() {
	for _, id := range []string{"3.007", "3.008"} {
		register(id, 4, func() DatapointValue { return &DPT_3007{} })
	}
}
