package dpt

import (
	"encoding/binary"
	"math"
)

// DPT_14056 is the 32 bit IEEE-754 single precision floating point
// datapoint type (major 14). All subtypes of this major share the same
// wire encoding, so each subtype key 14.000..14.079 is registered to this
// one type.
type DPT_14056 float32

// Pack encodes the value as big-endian IEEE-754.
func (d DPT_14056) Pack() ([]byte, error) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, math.Float32bits(float32(d)))
	return buf, nil
}

// Unpack decodes a big-endian IEEE-754 value.
func (d *DPT_14056) Unpack(data []byte) error {
	if len(data) != 4 {
		return DptLengthError{Dpt: "14.056", Length: len(data), Want: 4}
	}
	*d = DPT_14056(math.Float32frombits(binary.BigEndian.Uint32(data)))
	return nil
}

// BitLength implements BitLength.
func (DPT_14056) BitLength() uint { return 32 }

func init() {
	for _, id := range []string{
		"14.000", "14.001", "14.002", "14.003", "14.004", "14.005",
		"14.006", "14.007", "14.008", "14.009", "14.010", "14.011",
		"14.012", "14.013", "14.014", "14.015", "14.016", "14.017",
		"14.018", "14.019", "14.020", "14.021", "14.022", "14.023",
		"14.024", "14.025", "14.026", "14.027", "14.028", "14.029",
		"14.030", "14.031", "14.032", "14.033", "14.034", "14.035",
		"14.036", "14.037", "14.038", "14.039", "14.040", "14.041",
		"14.042", "14.043", "14.044", "14.045", "14.046", "14.047",
		"14.048", "14.049", "14.050", "14.051", "14.052", "14.053",
		"14.054", "14.055", "14.056", "14.057", "14.058", "14.059",
		"14.060", "14.061", "14.062", "14.063", "14.064", "14.065",
		"14.066", "14.067", "14.068", "14.069", "14.070", "14.071",
		"14.072", "14.073", "14.074", "14.075", "14.076", "14.077",
		"14.078", "14.079",
	} {
		register(id, 32, func() DatapointValue { var v DPT_14056; return &v })
	}
}
