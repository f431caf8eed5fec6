package dpt

import "encoding/binary"

// DPT_7001 is the 16 bit unsigned datapoint type (major 7): a plain
// big-endian value in 0..65535.
type DPT_7001 uint16

// Pack encodes the value big-endian.
func (d DPT_7001) Pack() ([]byte, error) {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(d))
	return buf, nil
}

// Unpack decodes a big-endian 16 bit value.
func (d *DPT_7001) Unpack(data []byte) error {
	if len(data) != 2 {
		return DptLengthError{Dpt: "7.001", Length: len(data), Want: 2}
	}
	*d = DPT_7001(binary.BigEndian.Uint16(data))
	return nil
}

// BitLength implements BitLength.
func (DPT_7001) BitLength() uint { return 16 }

func init() {
	for _, id := range []string{"7.001", "7.002", "7.005", "7.012", "7.013"} {
		register(id, 16, func() DatapointValue { var v DPT_7001; return &v })
	}
}
