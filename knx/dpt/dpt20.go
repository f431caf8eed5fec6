package dpt

// DPT_20001 is the generic 1 byte enumeration datapoint type (major 20):
// a single-byte code whose meaning depends on the subtype (HVAC mode,
// occupancy mode, priority, and so on). The codec is identical across
// every 20.xxx subtype; only the valid range and the meaning of each code
// differ, which is a concern for callers, not this package.
type DPT_20001 uint8

// Pack encodes the value.
func (d DPT_20001) Pack() ([]byte, error) {
	return []byte{byte(d)}, nil
}

// Unpack decodes a 1 byte enumeration PDU.
func (d *DPT_20001) Unpack(data []byte) error {
	if len(data) != 1 {
		return DptLengthError{Dpt: "20.001", Length: len(data), Want: 1}
	}
	*d = DPT_20001(data[0])
	return nil
}

// BitLength implements BitLength.
func (DPT_20001) BitLength() uint { return 8 }

func init() {
	for _, id := range []string{
		"20.001", "20.002", "20.003", "20.004", "20.005", "20.006",
		"20.007", "20.011", "20.012", "20.013", "20.014", "20.017",
		"20.020", "20.021", "20.022", "20.100", "20.101", "20.102",
		"20.103", "20.104", "20.105", "20.106", "20.107", "20.108",
		"20.109", "20.110",
	} {
		register(id, 8, func() DatapointValue { var v DPT_20001; return &v })
	}
}
