package knx

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knxkit/knxtunnel/knx/cemi"
)

func TestRoutingConnectionSelfLoopback(t *testing.T) {
	iface, err := net.InterfaceByName("lo")
	if err != nil {
		t.Skip("no loopback interface available")
	}

	// A scoped test group distinct from the well-known KNX routing
	// multicast address, so this never competes with a real installation.
	rc, err := DialRouting("239.100.100.100:40100", iface, nil)
	require.NoError(t, err)
	defer rc.Close()

	src, err := cemi.ParseIndividualAddr("1.1.1")
	require.NoError(t, err)
	dst, err := cemi.ParseGroupAddr("1/2/3")
	require.NoError(t, err)

	msg := cemi.NewGroupReq(src, dst, cemi.GroupValueWrite, []byte{0x42})
	require.NoError(t, rc.Send(msg))

	select {
	case got := <-rc.Inbound():
		req, ok := got.(*cemi.LDataReq)
		require.True(t, ok)
		assert.Equal(t, src, req.LData.Source)
		assert.Equal(t, dst, req.LData.GroupDestination())

	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for multicast loopback")
	}
}

func TestRoutingConnectionClose(t *testing.T) {
	iface, err := net.InterfaceByName("lo")
	if err != nil {
		t.Skip("no loopback interface available")
	}

	rc, err := DialRouting("239.100.100.101:40101", iface, nil)
	require.NoError(t, err)

	require.NoError(t, rc.Close())

	_, ok := <-rc.Inbound()
	assert.False(t, ok)
}
