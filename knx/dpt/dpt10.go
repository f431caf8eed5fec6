package dpt

import "fmt"

// DPT_10001 is the time-of-day datapoint type (major 10): a day of week plus
// a wall clock time, packed into 3 bytes.
type DPT_10001 struct {
	Day    uint8 // 0 = no day, 1 = Monday .. 7 = Sunday
	Hour   uint8 // 0..23
	Minute uint8 // 0..59
	Second uint8 // 0..59
}

// Pack encodes the time-of-day PDU.
func (d DPT_10001) Pack() ([]byte, error) {
	if d.Day > 7 {
		return nil, DptRangeError{Dpt: "10.001", Value: d.Day, Range: "0..7"}
	}
	if d.Hour > 23 {
		return nil, DptRangeError{Dpt: "10.001", Value: d.Hour, Range: "0..23"}
	}
	if d.Minute > 59 {
		return nil, DptRangeError{Dpt: "10.001", Value: d.Minute, Range: "0..59"}
	}
	if d.Second > 59 {
		return nil, DptRangeError{Dpt: "10.001", Value: d.Second, Range: "0..59"}
	}

	return []byte{
		d.Day<<5 | d.Hour,
		d.Minute,
		d.Second,
	}, nil
}

// Unpack decodes a time-of-day PDU.
func (d *DPT_10001) Unpack(data []byte) error {
	if len(data) != 3 {
		return DptLengthError{Dpt: "10.001", Length: len(data), Want: 3}
	}

	d.Day = data[0] >> 5
	d.Hour = data[0] & 0x1f
	d.Minute = data[1] & 0x3f
	d.Second = data[2] & 0x3f

	return nil
}

// BitLength implements BitLength.
func (DPT_10001) BitLength() uint { return 24 }

func (d DPT_10001) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", d.Hour, d.Minute, d.Second)
}

func init() {
	register("10.001", 24, func() DatapointValue { return &DPT_10001{} })
}
