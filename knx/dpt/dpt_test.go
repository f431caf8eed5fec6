package dpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveID(t *testing.T) {
	assert.Equal(t, "9.001", ResolveID("9.1"))
	assert.Equal(t, "9.001", ResolveID("9.001"))
	assert.Equal(t, "14.056", ResolveID("14.56"))
	assert.Equal(t, "not-a-dpt", ResolveID("not-a-dpt"))
}

func TestProduceUnknown(t *testing.T) {
	_, ok := Produce("999.999")
	assert.False(t, ok)
}

func TestBitWidth(t *testing.T) {
	bits, ok := BitWidth("1.001")
	require.True(t, ok)
	assert.Equal(t, uint(1), bits)

	bits, ok = BitWidth("9.001")
	require.True(t, ok)
	assert.Equal(t, uint(16), bits)

	bits, ok = BitWidth("14.056")
	require.True(t, ok)
	assert.Equal(t, uint(32), bits)
}

func TestDPT1RoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		d := DPT_1001(v)
		raw, err := d.Pack()
		require.NoError(t, err)
		require.Len(t, raw, 1)

		var got DPT_1001
		require.NoError(t, got.Unpack(raw))
		assert.Equal(t, d, got)
	}
}

// S2 from the testable properties: encode("1.001", true) packs to a single
// byte holding 0x01 in its low bit.
func TestDPT1OnEncodesToLowBit(t *testing.T) {
	raw, err := DPT_1001(true).Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, raw)
}

func TestDPT3RoundTrip(t *testing.T) {
	cases := []DPT_3007{
		{Control: true, StepCode: 0},
		{Control: false, StepCode: 7},
		{Control: true, StepCode: 4},
	}
	for _, d := range cases {
		raw, err := d.Pack()
		require.NoError(t, err)

		var got DPT_3007
		require.NoError(t, got.Unpack(raw))
		assert.Equal(t, d, got)
	}
}

func TestDPT2RoundTrip(t *testing.T) {
	cases := []DPT_2001{
		{Control: true, Value: false},
		{Control: false, Value: true},
		{Control: true, Value: true},
	}
	for _, d := range cases {
		raw, err := d.Pack()
		require.NoError(t, err)
		require.Len(t, raw, 1)

		var got DPT_2001
		require.NoError(t, got.Unpack(raw))
		assert.Equal(t, d, got)
	}
}

func TestDPT6RoundTrip(t *testing.T) {
	for _, v := range []DPT_6010{-128, -1, 0, 127} {
		raw, err := v.Pack()
		require.NoError(t, err)
		require.Len(t, raw, 1)

		var got DPT_6010
		require.NoError(t, got.Unpack(raw))
		assert.Equal(t, v, got)
	}
}

func TestDPT7RoundTrip(t *testing.T) {
	for _, v := range []DPT_7001{0, 1, 65535} {
		raw, err := v.Pack()
		require.NoError(t, err)
		require.Len(t, raw, 2)

		var got DPT_7001
		require.NoError(t, got.Unpack(raw))
		assert.Equal(t, v, got)
	}
}

func TestDPT8RoundTrip(t *testing.T) {
	for _, v := range []DPT_8001{-32768, -1, 0, 32767} {
		raw, err := v.Pack()
		require.NoError(t, err)
		require.Len(t, raw, 2)

		var got DPT_8001
		require.NoError(t, got.Unpack(raw))
		assert.Equal(t, v, got)
	}
}

func TestDPT5ScalingRoundTrip(t *testing.T) {
	raw, err := DPT_5001(50).Pack()
	require.NoError(t, err)
	require.Len(t, raw, 1)

	var got DPT_5001
	require.NoError(t, got.Unpack(raw))
	assert.InDelta(t, 50, float64(got), 1.0)
}

func TestDPT5RangeError(t *testing.T) {
	_, err := DPT_5001(150).Pack()
	require.Error(t, err)
	var rangeErr DptRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

// S1 from the testable properties: 21.5 encodes to 0x0C 0x33 under the
// documented KNX float16 algorithm (m = round(v/(0.01*2^e)), smallest e
// with m in [-2048, 2047]).
func TestDPT9S1RoundTrip(t *testing.T) {
	raw, err := DPT_9001(21.5).Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0C, 0x33}, raw)

	var got DPT_9001
	require.NoError(t, got.Unpack(raw))
	assert.InDelta(t, 21.5, float64(got), 0.01)
}

func TestDPT9NegativeRoundTrip(t *testing.T) {
	raw, err := DPT_9001(-12.3).Pack()
	require.NoError(t, err)

	var got DPT_9001
	require.NoError(t, got.Unpack(raw))
	assert.InDelta(t, -12.3, float64(got), 0.05)
}

func TestDPT9OutOfRangeEncodesInvalid(t *testing.T) {
	raw, err := DPT_9001(1e10).Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7F, 0xFF}, raw)
}

func TestDPT10RoundTrip(t *testing.T) {
	d := DPT_10001{Day: 3, Hour: 23, Minute: 59, Second: 59}
	raw, err := d.Pack()
	require.NoError(t, err)
	require.Len(t, raw, 3)

	var got DPT_10001
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, d, got)
}

func TestDPT11RoundTrip(t *testing.T) {
	d := DPT_11001{Day: 15, Month: 6, Year: 2024}
	raw, err := d.Pack()
	require.NoError(t, err)
	require.Len(t, raw, 3)

	var got DPT_11001
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, d, got)
}

func TestDPT12RoundTrip(t *testing.T) {
	raw, err := DPT_12001(4294967295).Pack()
	require.NoError(t, err)

	var got DPT_12001
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, DPT_12001(4294967295), got)
}

func TestDPT13RoundTrip(t *testing.T) {
	for _, v := range []DPT_13001{-2147483648, 0, 2147483647} {
		raw, err := v.Pack()
		require.NoError(t, err)

		var got DPT_13001
		require.NoError(t, got.Unpack(raw))
		assert.Equal(t, v, got)
	}
}

func TestDPT14RoundTrip(t *testing.T) {
	for _, v := range []DPT_14056{-1.5, 0, 3.14159} {
		raw, err := v.Pack()
		require.NoError(t, err)
		require.Len(t, raw, 4)

		var got DPT_14056
		require.NoError(t, got.Unpack(raw))
		assert.InDelta(t, float64(v), float64(got), 1e-4)
	}
}

func TestDPT14SubtypesShareEncoding(t *testing.T) {
	_, ok := Produce("14.056")
	require.True(t, ok)
	_, ok = Produce("14.019")
	require.True(t, ok)
}

func TestDPT15RoundTrip(t *testing.T) {
	d := DPT_15000{Digits: 1234, Detection: true, Index: 5}
	raw, err := d.Pack()
	require.NoError(t, err)
	require.Len(t, raw, 4)

	var got DPT_15000
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, d, got)
}

func TestDPT16ASCIIRoundTrip(t *testing.T) {
	d := DPT_16000("hello")
	raw, err := d.Pack()
	require.NoError(t, err)
	require.Len(t, raw, 14)

	var got DPT_16000
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, DPT_16000("hello"), got)
}

func TestDPT16Latin1RoundTrip(t *testing.T) {
	d := DPT_16001("café")
	raw, err := d.Pack()
	require.NoError(t, err)
	require.Len(t, raw, 14)

	var got DPT_16001
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, d, got)
}

func TestDPT16ASCIITruncatesOverlongValue(t *testing.T) {
	d := DPT_16000("this string has way more than fourteen characters")
	raw, err := d.Pack()
	require.NoError(t, err)
	require.Len(t, raw, 14)
	assert.Equal(t, []byte("this string ha"), raw)

	var got DPT_16000
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, DPT_16000("this string ha"), got)
}

func TestDPT16Latin1TruncatesOverlongValue(t *testing.T) {
	d := DPT_16001("this café string has way more than fourteen bytes")
	raw, err := d.Pack()
	require.NoError(t, err)
	require.Len(t, raw, 14)

	var got DPT_16001
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, DPT_16001("this café stri"), got)
}

func TestDPT18RoundTrip(t *testing.T) {
	d := DPT_18001{Learn: true, SceneNumber: 42}
	raw, err := d.Pack()
	require.NoError(t, err)

	var got DPT_18001
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, d, got)
}

func TestDPT19RoundTrip(t *testing.T) {
	d := DPT_19001{Year: 2024, Month: 6, Day: 15, Hour: 14, Minute: 30, Second: 0}
	raw, err := d.Pack()
	require.NoError(t, err)
	require.Len(t, raw, 8)

	var got DPT_19001
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, d, got)
}

func TestDPT20RoundTrip(t *testing.T) {
	raw, err := DPT_20001(3).Pack()
	require.NoError(t, err)
	require.Len(t, raw, 1)

	var got DPT_20001
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, DPT_20001(3), got)
}

func TestDPT232RGBRoundTrip(t *testing.T) {
	d := DPT_232600{Red: 255, Green: 128, Blue: 0}
	raw, err := d.Pack()
	require.NoError(t, err)
	require.Len(t, raw, 3)
	assert.Equal(t, "#ff8000", d.String())

	var got DPT_232600
	require.NoError(t, got.Unpack(raw))
	assert.Equal(t, d, got)
}

func TestLengthErrorsOnWrongSize(t *testing.T) {
	var v DPT_9001
	err := v.Unpack([]byte{0x01})
	require.Error(t, err)
	var lenErr DptLengthError
	assert.ErrorAs(t, err, &lenErr)
}
