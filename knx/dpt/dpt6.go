package dpt

// DPT_6010 is the 8 bit signed datapoint type (major 6): a plain two's
// complement value in -128..127.
type DPT_6010 int8

// Pack encodes the value.
func (d DPT_6010) Pack() ([]byte, error) {
	return []byte{byte(int8(d))}, nil
}

// Unpack decodes the value.
func (d *DPT_6010) Unpack(data []byte) error {
	if len(data) != 1 {
		return DptLengthError{Dpt: "6.010", Length: len(data), Want: 1}
	}
	*d = DPT_6010(int8(data[0]))
	return nil
}

// BitLength implements BitLength.
func (DPT_6010) BitLength() uint { return 8 }

func init() {
	register("6.001", 8, func() DatapointValue { var v DPT_6010; return &v })
	register("6.010", 8, func() DatapointValue { var v DPT_6010; return &v })
}
