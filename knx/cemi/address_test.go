package cemi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndividualAddr(t *testing.T) {
	addr, err := ParseIndividualAddr("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, uint8(1), addr.Area())
	assert.Equal(t, uint8(2), addr.Line())
	assert.Equal(t, uint8(3), addr.Device())
	assert.Equal(t, "1.2.3", addr.String())
}

func TestParseIndividualAddrOutOfRange(t *testing.T) {
	_, err := ParseIndividualAddr("16.0.0")
	assert.Error(t, err)
}

func TestParseGroupAddr3Level(t *testing.T) {
	ga, err := ParseGroupAddr("1/2/3")
	require.NoError(t, err)
	assert.Equal(t, uint8(1), ga.Main3())
	assert.Equal(t, uint8(2), ga.Middle3())
	assert.Equal(t, uint8(3), ga.Sub3())
	assert.Equal(t, "1/2/3", ga.String3())
}

func TestParseGroupAddr2Level(t *testing.T) {
	ga, err := ParseGroupAddr("1/515")
	require.NoError(t, err)
	assert.Equal(t, uint8(1), ga.Main2())
	assert.Equal(t, uint16(515), ga.Sub2())
}

func TestParseGroupAddrFree(t *testing.T) {
	ga, err := ParseGroupAddr("12345")
	require.NoError(t, err)
	assert.Equal(t, GroupAddr(12345), ga)
	assert.Equal(t, "12345", ga.StringFree())
}

func TestParseGroupAddrInvalid(t *testing.T) {
	_, err := ParseGroupAddr("1/2/3/4")
	assert.Error(t, err)

	_, err = ParseGroupAddr("not-a-number")
	assert.Error(t, err)
}

func TestGroupAddrRoundTripsAcrossForms(t *testing.T) {
	ga, err := NewGroupAddr3(5, 3, 200)
	require.NoError(t, err)

	reparsed, err := ParseGroupAddr(ga.String3())
	require.NoError(t, err)
	assert.Equal(t, ga, reparsed)
}
