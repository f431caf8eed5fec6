package dpt

import "fmt"

// DPT_19001 is the date and time datapoint type (major 19): a full
// calendar date and wall clock time plus a block of status flags, packed
// into 8 bytes.
type DPT_19001 struct {
	Year   uint16 // 1900..2155
	Month  uint8  // 1..12
	Day    uint8  // 1..31
	Dow    uint8  // 0 = no day, 1 = Monday .. 7 = Sunday
	Hour   uint8  // 0..24 (24 permitted only with Minute=Second=0)
	Minute uint8  // 0..59
	Second uint8  // 0..59

	Fault          bool
	WorkingDay     bool
	NoWorkingDay   bool
	NoYear         bool
	NoDate         bool
	NoDayOfWeek    bool
	NoTime         bool
	StandardSummer bool // 0 = standard time, 1 = summer time (DST)
	QualityClock   bool // 0 = fault tolerant, 1 = sync source reliable
}

// Pack encodes the date/time PDU.
func (d DPT_19001) Pack() ([]byte, error) {
	if d.Year < 1900 || d.Year > 2155 {
		return nil, DptRangeError{Dpt: "19.001", Value: d.Year, Range: "1900..2155"}
	}
	if d.Month > 12 {
		return nil, DptRangeError{Dpt: "19.001", Value: d.Month, Range: "0..12"}
	}
	if d.Day > 31 {
		return nil, DptRangeError{Dpt: "19.001", Value: d.Day, Range: "0..31"}
	}
	if d.Hour > 24 {
		return nil, DptRangeError{Dpt: "19.001", Value: d.Hour, Range: "0..24"}
	}
	if d.Minute > 59 {
		return nil, DptRangeError{Dpt: "19.001", Value: d.Minute, Range: "0..59"}
	}
	if d.Second > 59 {
		return nil, DptRangeError{Dpt: "19.001", Value: d.Second, Range: "0..59"}
	}

	buf := make([]byte, 8)
	buf[0] = byte(d.Year - 1900)
	buf[1] = d.Month & 0x0f
	buf[2] = d.Day & 0x1f
	buf[3] = d.Dow<<5 | d.Hour&0x1f
	buf[4] = d.Minute & 0x3f
	buf[5] = d.Second & 0x3f

	if d.Fault {
		buf[6] |= 1 << 7
	}
	if d.WorkingDay {
		buf[6] |= 1 << 6
	}
	if d.NoWorkingDay {
		buf[6] |= 1 << 5
	}
	if d.NoYear {
		buf[6] |= 1 << 4
	}
	if d.NoDate {
		buf[6] |= 1 << 3
	}
	if d.NoDayOfWeek {
		buf[6] |= 1 << 2
	}
	if d.NoTime {
		buf[6] |= 1 << 1
	}
	if d.StandardSummer {
		buf[6] |= 1 << 0
	}
	if d.QualityClock {
		buf[7] |= 1 << 7
	}

	return buf, nil
}

// Unpack decodes a date/time PDU.
func (d *DPT_19001) Unpack(data []byte) error {
	if len(data) != 8 {
		return DptLengthError{Dpt: "19.001", Length: len(data), Want: 8}
	}

	d.Year = 1900 + uint16(data[0])
	d.Month = data[1] & 0x0f
	d.Day = data[2] & 0x1f
	d.Dow = data[3] >> 5
	d.Hour = data[3] & 0x1f
	d.Minute = data[4] & 0x3f
	d.Second = data[5] & 0x3f

	d.Fault = data[6]&(1<<7) != 0
	d.WorkingDay = data[6]&(1<<6) != 0
	d.NoWorkingDay = data[6]&(1<<5) != 0
	d.NoYear = data[6]&(1<<4) != 0
	d.NoDate = data[6]&(1<<3) != 0
	d.NoDayOfWeek = data[6]&(1<<2) != 0
	d.NoTime = data[6]&(1<<1) != 0
	d.StandardSummer = data[6]&(1<<0) != 0
	d.QualityClock = data[7]&(1<<7) != 0

	return nil
}

// BitLength implements BitLength.
func (DPT_19001) BitLength() uint { return 8 * 8 }

func (d DPT_19001) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

func init() {
	register("19.001", 8*8, func() DatapointValue { return &DPT_19001{} })
}
