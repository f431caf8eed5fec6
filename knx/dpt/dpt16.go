package dpt

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
)

// DPT_16000 is the ASCII character string datapoint type (major 16.000): up
// to 14 ASCII characters (bytes 0x00..0x7F), zero-padded.
type DPT_16000 string

// Pack encodes the string as zero-padded ASCII. A charset violation is
// rejected with DptRangeError; a string longer than 14 characters is
// truncated and packed in its truncated form rather than rejected.
func (d DPT_16000) Pack() ([]byte, error) {
	s := string(d)
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return nil, DptRangeError{Dpt: "16.000", Value: s, Range: "ASCII (0..0x7f)"}
		}
	}
	if len(s) > 14 {
		s = s[:14]
	}

	buf := make([]byte, 14)
	copy(buf, s)
	return buf, nil
}

// Unpack decodes a zero-padded ASCII string, trimming the trailing padding.
func (d *DPT_16000) Unpack(data []byte) error {
	if len(data) != 14 {
		return DptLengthError{Dpt: "16.000", Length: len(data), Want: 14}
	}
	*d = DPT_16000(bytes.TrimRight(data, "\x00"))
	return nil
}

// BitLength implements BitLength.
func (DPT_16000) BitLength() uint { return 14 * 8 }

// DPT_16001 is the Latin-1 (ISO 8859-1) character string datapoint type
// (major 16.001): up to 14 characters, zero-padded, encoded with the
// charmap tables rather than a hand-rolled codepage table.
type DPT_16001 string

// Pack encodes the string as zero-padded Latin-1. A charset violation is
// rejected with DptRangeError; an encoded value longer than 14 bytes is
// truncated and packed in its truncated form rather than rejected.
func (d DPT_16001) Pack() ([]byte, error) {
	s := string(d)

	encoded, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return nil, DptRangeError{Dpt: "16.001", Value: s, Range: "representable in ISO 8859-1"}
	}
	if len(encoded) > 14 {
		encoded = encoded[:14]
	}

	buf := make([]byte, 14)
	copy(buf, encoded)
	return buf, nil
}

// Unpack decodes a zero-padded Latin-1 string, trimming the trailing
// padding.
func (d *DPT_16001) Unpack(data []byte) error {
	if len(data) != 14 {
		return DptLengthError{Dpt: "16.001", Length: len(data), Want: 14}
	}

	trimmed := bytes.TrimRight(data, "\x00")

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(trimmed)
	if err != nil {
		return err
	}

	*d = DPT_16001(decoded)
	return nil
}

// BitLength implements BitLength.
func (DPT_16001) BitLength() uint { return 14 * 8 }

func init() {
	register("16.000", 14*8, func() DatapointValue { var v DPT_16000; return &v })
	register("16.001", 14*8, func() DatapointValue { var v DPT_16001; return &v })
}
