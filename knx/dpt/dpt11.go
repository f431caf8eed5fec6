package dpt

import "fmt"

// DPT_11001 is the date datapoint type (major 11): day, month and a two
// digit year, packed into 3 bytes. Years 90..99 mean 1990..1999; years
// 0..89 mean 2000..2089.
type DPT_11001 struct {
	Day   uint8 // 1..31
	Month uint8 // 1..12
	Year  uint16
}

// Pack encodes the date PDU.
func (d DPT_11001) Pack() ([]byte, error) {
	if d.Day < 1 || d.Day > 31 {
		return nil, DptRangeError{Dpt: "11.001", Value: d.Day, Range: "1..31"}
	}
	if d.Month < 1 || d.Month > 12 {
		return nil, DptRangeError{Dpt: "11.001", Value: d.Month, Range: "1..12"}
	}

	var yearByte uint8
	switch {
	case d.Year >= 1990 && d.Year <= 1999:
		yearByte = uint8(d.Year - 1990 + 90)
	case d.Year >= 2000 && d.Year <= 2089:
		yearByte = uint8(d.Year - 2000)
	default:
		return nil, DptRangeError{Dpt: "11.001", Value: d.Year, Range: "1990..1999 or 2000..2089"}
	}

	return []byte{d.Day, d.Month, yearByte}, nil
}

// Unpack decodes a date PDU.
func (d *DPT_11001) Unpack(data []byte) error {
	if len(data) != 3 {
		return DptLengthError{Dpt: "11.001", Length: len(data), Want: 3}
	}

	d.Day = data[0] & 0x1f
	d.Month = data[1] & 0x0f
	yearOffset := data[2] & 0x7f

	if yearOffset >= 90 {
		d.Year = 1900 + uint16(yearOffset)
	} else {
		d.Year = 2000 + uint16(yearOffset)
	}

	return nil
}

// BitLength implements BitLength.
func (DPT_11001) BitLength() uint { return 24 }

func (d DPT_11001) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func init() {
	register("11.001", 24, func() DatapointValue { return &DPT_11001{} })
}
