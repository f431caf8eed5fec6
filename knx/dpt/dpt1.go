package dpt

// DPT_1001 is the 1 bit boolean datapoint type family (major 1). Every
// 1.xxx subtype shares this exact wire encoding; subtypes only rename what
// false/true mean (off/on, up/down, open/close, ...), which Dpt1Name
// exposes for display purposes.
type DPT_1001 bool

// Pack encodes the value into a single low bit.
func (d DPT_1001) Pack() ([]byte, error) {
	if d {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

// Unpack decodes a single low bit into the value.
func (d *DPT_1001) Unpack(data []byte) error {
	if len(data) != 1 {
		return DptLengthError{Dpt: "1.001", Length: len(data), Want: 1}
	}
	*d = data[0]&0x01 != 0
	return nil
}

// BitLength implements BitLength: 1.xxx packs into the low bit of the
// TPCI/APCI byte.
func (DPT_1001) BitLength() uint { return 1 }

func (d DPT_1001) String() string {
	if d {
		return "on"
	}
	return "off"
}

// Dpt1Names maps a 1.xxx subtype to its {false, true} display names.
var Dpt1Names = map[string][2]string{
	"1.001": {"off", "on"},
	"1.002": {"false", "true"},
	"1.003": {"disable", "enable"},
	"1.008": {"up", "down"},
	"1.009": {"open", "close"},
	"1.010": {"stop", "start"},
	"1.011": {"inactive", "active"},
	"1.017": {"no trigger", "trigger"},
}

// Dpt1Name formats v using the display names registered for subtype. If the
// subtype is unknown, it falls back to "off"/"on".
func Dpt1Name(subtype string, v bool) string {
	names, ok := Dpt1Names[ResolveID(subtype)]
	if !ok {
		names = Dpt1Names["1.001"]
	}
	if v {
		return names[1]
	}
	return names[0]
}

func init() {
	for _, id := range []string{
		"1.001", "1.002", "1.003", "1.008", "1.009", "1.010", "1.011", "1.017",
	} {
		register(id, 1, func() DatapointValue { var v DPT_1001; return &v })
	}
}
