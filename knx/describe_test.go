// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knxkit/knxtunnel/knx/knxnet"
)

// fakeDescriber is a minimal KNXnet/IP server that answers DESCRIPTION_REQUEST
// and SEARCH_REQUEST_EXT with a canned response, driving DescribeTunnel/
// DescribeTunnelExt over real loopback UDP.
type fakeDescriber struct {
	conn *net.UDPConn
}

func newFakeDescriber(t *testing.T) *fakeDescriber {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	fd := &fakeDescriber{conn: conn}
	t.Cleanup(func() { conn.Close() })

	go fd.serve(t)

	return fd
}

func (fd *fakeDescriber) port() int {
	return fd.conn.LocalAddr().(*net.UDPAddr).Port
}

func (fd *fakeDescriber) serve(t *testing.T) {
	buffer := make([]byte, 1024)
	for {
		n, remote, err := fd.conn.ReadFromUDP(buffer)
		if err != nil {
			return
		}

		id, _, err := knxnet.Unpack(buffer[:n])
		if err != nil {
			continue
		}

		var srv knxnet.Service
		switch id {
		case knxnet.DescriptionReqService:
			srv = &knxnet.DescriptionRes{
				DescriptionB: knxnet.DescriptionBlock{
					DeviceHardware: knxnet.DeviceInformationBlock{
						Type:         knxnet.DescriptionTypeDeviceInfo,
						FriendlyName: "test gateway",
						HardwareAddr: make(net.HardwareAddr, 6),
					},
					SupportedServices: knxnet.SupportedServicesDIB{
						Type: knxnet.DescriptionTypeSupportedServiceFamilies,
					},
				},
			}
		case knxnet.SearchReqExtService:
			srv = &knxnet.SearchResExt{}
		default:
			continue
		}

		buf := make([]byte, 6+srv.Size())
		knxnet.Pack(buf, srv)
		fd.conn.WriteToUDP(buf, remote)
	}
}

func TestDescribeTunnelReturnsDeviceInfo(t *testing.T) {
	fd := newFakeDescriber(t)

	res, err := DescribeTunnel("127.0.0.1:"+strconv.Itoa(fd.port()), time.Second)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "test gateway", res.DescriptionB.DeviceHardware.FriendlyName)
}

func TestDescribeTunnelExtReturnsSearchResponse(t *testing.T) {
	fd := newFakeDescriber(t)

	res, err := DescribeTunnelExt("127.0.0.1:"+strconv.Itoa(fd.port()), time.Second)
	require.NoError(t, err)
	require.NotNil(t, res)
}

func TestDescribeTunnelTimesOutWithNoServer(t *testing.T) {
	// Bind a socket so the port exists but never answer the request.
	silent, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer silent.Close()

	port := silent.LocalAddr().(*net.UDPAddr).Port

	res, err := DescribeTunnel("127.0.0.1:"+strconv.Itoa(port), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, res)
}
