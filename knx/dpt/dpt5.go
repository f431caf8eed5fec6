package dpt

import "math"

// DPT_5001 is the 8 bit scaling datapoint type (5.001): a percentage in
// 0..100, stored on the wire as round(v*255/100).
type DPT_5001 float64

// Pack encodes the percentage, rounding to the nearest representable step.
func (d DPT_5001) Pack() ([]byte, error) {
	v := float64(d)
	if v < 0 || v > 100 {
		return nil, DptRangeError{Dpt: "5.001", Value: v, Range: "0..100"}
	}
	return []byte{byte(math.Round(v * 255 / 100))}, nil
}

// Unpack decodes a scaling byte into a percentage, rounded to 2 decimals.
func (d *DPT_5001) Unpack(data []byte) error {
	if len(data) != 1 {
		return DptLengthError{Dpt: "5.001", Length: len(data), Want: 1}
	}
	v := float64(data[0]) * 100 / 255
	*d = DPT_5001(math.Round(v*100) / 100)
	return nil
}

// BitLength implements BitLength.
func (DPT_5001) BitLength() uint { return 8 }

// DPT_5003 is the 8 bit angle datapoint type (5.003): degrees in 0..360,
// stored on the wire as round(v*255/360).
type DPT_5003 float64

// Pack encodes the angle, rounding to the nearest representable step.
func (d DPT_5003) Pack() ([]byte, error) {
	v := float64(d)
	if v < 0 || v > 360 {
		return nil, DptRangeError{Dpt: "5.003", Value: v, Range: "0..360"}
	}
	return []byte{byte(math.Round(v * 255 / 360))}, nil
}

// Unpack decodes an angle byte, rounded to 2 decimals.
func (d *DPT_5003) Unpack(data []byte) error {
	if len(data) != 1 {
		return DptLengthError{Dpt: "5.003", Length: len(data), Want: 1}
	}
	v := float64(data[0]) * 360 / 255
	*d = DPT_5003(math.Round(v*100) / 100)
	return nil
}

// BitLength implements BitLength.
func (DPT_5003) BitLength() uint { return 8 }

// DPT_5004 is the 8 bit unsigned raw datapoint type (5.004/5.010): a plain
// value in 0..255, stored verbatim.
type DPT_5004 uint8

// Pack encodes the raw value.
func (d DPT_5004) Pack() ([]byte, error) { return []byte{byte(d)}, nil }

// Unpack decodes the raw value.
func (d *DPT_5004) Unpack(data []byte) error {
	if len(data) != 1 {
		return DptLengthError{Dpt: "5.004", Length: len(data), Want: 1}
	}
	*d = DPT_5004(data[0])
	return nil
}

// BitLength implements BitLength.
func (DPT_5004) BitLength() uint { return 8 }

func init() {
	register("5.001", 8, func() DatapointValue { var v DPT_5001; return &v })
	register("5.003", 8, func() DatapointValue { var v DPT_5003; return &v })
	register("5.004", 8, func() DatapointValue { var v DPT_5004; return &v })
	register("5.010", 8, func() DatapointValue { var v DPT_5004; return &v })
}
