package dpt

import "encoding/binary"

// DPT_12001 is the 32 bit unsigned datapoint type (major 12): a plain
// big-endian value in 0..4294967295.
type DPT_12001 uint32

// Pack encodes the value big-endian.
func (d DPT_12001) Pack() ([]byte, error) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(d))
	return buf, nil
}

// Unpack decodes a big-endian 32 bit value.
func (d *DPT_12001) Unpack(data []byte) error {
	if len(data) != 4 {
		return DptLengthError{Dpt: "12.001", Length: len(data), Want: 4}
	}
	*d = DPT_12001(binary.BigEndian.Uint32(data))
	return nil
}

// BitLength implements BitLength.
func (DPT_12001) BitLength() uint { return 32 }

func init() {
	register("12.001", 32, func() DatapointValue { var v DPT_12001; return &v })
}
