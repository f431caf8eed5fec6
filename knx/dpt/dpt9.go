package dpt

import "math"

// DPT_9001 is the 16 bit KNX floating point datapoint type (major 9):
// value = 0.01 * mantissa * 2^exponent, with mantissa a 12 bit two's
// complement number (sign bit + 11 magnitude bits) and a 4 bit exponent.
type DPT_9001 float32

// Pack finds the smallest exponent for which the value's mantissa fits in
// -2048..2047 and packs the KNX float16 representation. Non-finite or
// out-of-range values encode to the reserved "invalid data" pattern 0x7FFF,
// per the datapoint's own convention for representing an invalid reading.
func (d DPT_9001) Pack() ([]byte, error) {
	v := float64(d)

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte{0x7F, 0xFF}, nil
	}

	var exp int
	var m int
	found := false

	for exp = 0; exp <= 15; exp++ {
		scaled := v / (0.01 * math.Pow(2, float64(exp)))
		m = int(math.Round(scaled))
		if m >= -2048 && m <= 2047 {
			found = true
			break
		}
	}

	if !found {
		return []byte{0x7F, 0xFF}, nil
	}

	tc := m
	if tc < 0 {
		tc += 4096
	}

	sign := byte(0)
	if tc >= 2048 {
		sign = 1
	}

	b0 := sign<<7 | byte(exp&0x0f)<<3 | byte((tc>>8)&0x07)
	b1 := byte(tc & 0xff)

	return []byte{b0, b1}, nil
}

// Unpack decodes a KNX float16 PDU.
func (d *DPT_9001) Unpack(data []byte) error {
	if len(data) != 2 {
		return DptLengthError{Dpt: "9.001", Length: len(data), Want: 2}
	}

	if data[0] == 0x7f && data[1] == 0xff {
		*d = DPT_9001(float32(math.NaN()))
		return nil
	}

	sign := (data[0] >> 7) & 0x01
	exp := (data[0] >> 3) & 0x0f
	mant := int(data[0]&0x07)<<8 | int(data[1])

	tc := int(sign)<<11 | mant
	m := tc
	if sign == 1 {
		m = tc - 4096
	}

	v := 0.01 * float64(m) * math.Pow(2, float64(exp))
	*d = DPT_9001(float32(v))
	return nil
}

// BitLength implements BitLength.
func (DPT_9001) BitLength() uint { return 16 }

func init() {
	for _, id := range []string{
		"9.001", "9.002", "9.003", "9.004", "9.005", "9.006", "9.007",
		"9.008", "9.020", "9.021", "9.024", "9.025", "9.026", "9.027",
	} {
		register(id, 16, func() DatapointValue { var v DPT_9001; return &v })
	}
}
