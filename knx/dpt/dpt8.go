package dpt

import "encoding/binary"

// DPT_8001 is the 16 bit signed datapoint type (major 8): a plain
// big-endian two's complement value in -32768..32767.
type DPT_8001 int16

// Pack encodes the value big-endian.
func (d DPT_8001) Pack() ([]byte, error) {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(int16(d)))
	return buf, nil
}

// Unpack decodes a big-endian 16 bit value.
func (d *DPT_8001) Unpack(data []byte) error {
	if len(data) != 2 {
		return DptLengthError{Dpt: "8.001", Length: len(data), Want: 2}
	}
	*d = DPT_8001(int16(binary.BigEndian.Uint16(data)))
	return nil
}

// BitLength implements BitLength.
func (DPT_8001) BitLength() uint { return 16 }

func init() {
	for _, id := range []string{"8.001", "8.002", "8.010", "8.011"} {
		register(id, 16, func() DatapointValue { var v DPT_8001; return &v })
	}
}
