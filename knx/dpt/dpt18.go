package dpt

// DPT_18001 is the scene control datapoint type (major 18): a scene number
// plus a learn/activate flag, packed into a single byte.
type DPT_18001 struct {
	Learn       bool  // C: 0 = activate, 1 = learn
	SceneNumber uint8 // 0..63
}

// Pack encodes the scene control PDU.
func (d DPT_18001) Pack() ([]byte, error) {
	if d.SceneNumber > 63 {
		return nil, DptRangeError{Dpt: "18.001", Value: d.SceneNumber, Range: "0..63"}
	}

	b := d.SceneNumber & 0x3f
	if d.Learn {
		b |= 1 << 7
	}
	return []byte{b}, nil
}

// Unpack decodes a scene control PDU.
func (d *DPT_18001) Unpack(data []byte) error {
	if len(data) != 1 {
		return DptLengthError{Dpt: "18.001", Length: len(data), Want: 1}
	}

	d.Learn = data[0]&(1<<7) != 0
	d.SceneNumber = data[0] & 0x3f

	return nil
}

// BitLength implements BitLength.
func (DPT_18001) BitLength() uint { return 8 }

func init() {
	register("18.001", 8, func() DatapointValue { return &DPT_18001{} })
}
