package dpt

import "encoding/binary"

// DPT_13001 is the 32 bit signed datapoint type (major 13): a plain
// big-endian two's complement value.
type DPT_13001 int32

// Pack encodes the value big-endian.
func (d DPT_13001) Pack() ([]byte, error) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(int32(d)))
	return buf, nil
}

// Unpack decodes a big-endian 32 bit value.
func (d *DPT_13001) Unpack(data []byte) error {
	if len(data) != 4 {
		return DptLengthError{Dpt: "13.001", Length: len(data), Want: 4}
	}
	*d = DPT_13001(int32(binary.BigEndian.Uint32(data)))
	return nil
}

// BitLength implements BitLength.
func (DPT_13001) BitLength() uint { return 32 }

func init() {
	for _, id := range []string{"13.001", "13.010", "13.013"} {
		register(id, 32, func() DatapointValue { var v DPT_13001; return &v })
	}
}
