package dpt

import "fmt"

// DPT_232600 is the RGB colour datapoint type (major 232): three 8 bit
// colour channels, packed into 3 bytes with no padding.
type DPT_232600 struct {
	Red, Green, Blue uint8
}

// Pack encodes the colour PDU.
func (d DPT_232600) Pack() ([]byte, error) {
	return []byte{d.Red, d.Green, d.Blue}, nil
}

// Unpack decodes a colour PDU.
func (d *DPT_232600) Unpack(data []byte) error {
	if len(data) != 3 {
		return DptLengthError{Dpt: "232.600", Length: len(data), Want: 3}
	}
	d.Red, d.Green, d.Blue = data[0], data[1], data[2]
	return nil
}

// BitLength implements BitLength.
func (DPT_232600) BitLength() uint { return 24 }

func (d DPT_232600) String() string {
	return fmt.Sprintf("#%02x%02x%02x", d.Red, d.Green, d.Blue)
}

func init() {
	register("232.600", 24, func() DatapointValue { return &DPT_232600{} })
}
