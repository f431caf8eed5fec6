package knxnet

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knxkit/knxtunnel/knx/cemi"
)

func packFrame(t *testing.T, srv Service) []byte {
	t.Helper()
	buf := make([]byte, headerLength+srv.Size())
	Pack(buf, srv)
	return buf
}

func TestHostInfoFromAddressRoundTrip(t *testing.T) {
	udpAddr := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 10), Port: 3671}

	info, err := HostInfoFromAddress(udpAddr)
	require.NoError(t, err)
	assert.Equal(t, UDP4, info.Protocol)
	assert.Equal(t, uint16(3671), info.Port)
	assert.Equal(t, "192.168.1.10", info.Address.String())

	buf := make([]byte, info.Size())
	info.Pack(buf)

	var got HostInfo
	n, err := got.Unpack(buf)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), n)
	assert.Equal(t, info, got)

	back := got.Addr()
	assert.Equal(t, "192.168.1.10", back.IP.String())
	assert.Equal(t, 3671, back.Port)
}

func TestHostInfoFromAddressRejectsNonUDP(t *testing.T) {
	_, err := HostInfoFromAddress(&net.TCPAddr{IP: net.IPv4(1, 2, 3, 4), Port: 80})
	assert.Error(t, err)
}

func TestConnReqConnResRoundTrip(t *testing.T) {
	local := HostInfo{Protocol: UDP4, Address: Address{10, 0, 0, 1}, Port: 12345}
	req := NewTunnelConnReq(local)

	buf := packFrame(t, &req)

	id, srv, err := Unpack(buf)
	require.NoError(t, err)
	assert.Equal(t, ConnReqService, id)

	got, ok := srv.(*ConnReq)
	require.True(t, ok)
	assert.Equal(t, local, got.Control)
	assert.Equal(t, local, got.Data)
	assert.Equal(t, TunnelConnection, got.Type)
	assert.Equal(t, TunnelLayerData, got.Layer)

	res := ConnRes{
		Channel: 7,
		Status:  ConnResOk,
		Data:    local,
		Address: cemi.IndividualAddr(0x1105),
	}
	buf = packFrame(t, &res)

	id, srv, err = Unpack(buf)
	require.NoError(t, err)
	assert.Equal(t, ConnResService, id)

	gotRes, ok := srv.(*ConnRes)
	require.True(t, ok)
	assert.Equal(t, uint8(7), gotRes.Channel)
	assert.Equal(t, ConnResOk, gotRes.Status)
	assert.Equal(t, local, gotRes.Data)
	assert.Equal(t, cemi.IndividualAddr(0x1105), gotRes.Address)
}

func TestConnResErrorStatusOmitsBody(t *testing.T) {
	res := ConnRes{Channel: 3, Status: ConnResNoMoreConnections}
	assert.Equal(t, uint(2), res.Size())

	buf := packFrame(t, &res)

	_, srv, err := Unpack(buf)
	require.NoError(t, err)

	got, ok := srv.(*ConnRes)
	require.True(t, ok)
	assert.Equal(t, ConnResNoMoreConnections, got.Status)
	assert.Equal(t, "no more connections", got.Status.String())
}

func TestConnStateReqResRoundTrip(t *testing.T) {
	control := HostInfo{Protocol: UDP4, Address: Address{192, 168, 1, 2}, Port: 3671}
	req := ConnStateReq{Channel: 4, Control: control}

	buf := packFrame(t, &req)
	id, srv, err := Unpack(buf)
	require.NoError(t, err)
	assert.Equal(t, ConnStateReqService, id)

	got, ok := srv.(*ConnStateReq)
	require.True(t, ok)
	assert.Equal(t, uint8(4), got.Channel)
	assert.Equal(t, control, got.Control)

	res := ConnStateRes{Channel: 4, Status: ConnStateResInactive}
	buf = packFrame(t, &res)

	_, srv, err = Unpack(buf)
	require.NoError(t, err)
	gotRes, ok := srv.(*ConnStateRes)
	require.True(t, ok)
	assert.Equal(t, ConnStateResInactive, gotRes.Status)
	assert.Equal(t, "inactive connection", gotRes.Status.String())
}

func TestDiscReqResRoundTrip(t *testing.T) {
	control := HostInfo{Protocol: UDP4, Address: Address{10, 0, 0, 2}, Port: 3671}
	req := DiscReq{Channel: 9, Control: control}

	buf := packFrame(t, &req)
	_, srv, err := Unpack(buf)
	require.NoError(t, err)

	got, ok := srv.(*DiscReq)
	require.True(t, ok)
	assert.Equal(t, uint8(9), got.Channel)
	assert.Equal(t, control, got.Control)

	res := DiscRes{Channel: 9, Status: 0}
	buf = packFrame(t, &res)
	_, srv, err = Unpack(buf)
	require.NoError(t, err)

	gotRes, ok := srv.(*DiscRes)
	require.True(t, ok)
	assert.Equal(t, uint8(9), gotRes.Channel)
}

func TestTunnelReqResRoundTrip(t *testing.T) {
	src, err := cemi.ParseIndividualAddr("1.1.1")
	require.NoError(t, err)
	dst, err := cemi.ParseGroupAddr("1/2/3")
	require.NoError(t, err)

	payload := cemi.NewGroupReq(src, dst, cemi.GroupValueWrite, []byte{0x01})

	req := TunnelReq{Channel: 1, SeqNumber: 5, Payload: payload}
	buf := packFrame(t, &req)

	id, srv, err := Unpack(buf)
	require.NoError(t, err)
	assert.Equal(t, TunnelReqService, id)

	got, ok := srv.(*TunnelReq)
	require.True(t, ok)
	assert.Equal(t, uint8(1), got.Channel)
	assert.Equal(t, uint8(5), got.SeqNumber)

	gotPayload, ok := got.Payload.(*cemi.LDataReq)
	require.True(t, ok)
	assert.Equal(t, src, gotPayload.LData.Source)

	res := TunnelRes{Channel: 1, SeqNumber: 5, Status: TunnelAckOk}
	buf = packFrame(t, &res)

	_, srv, err = Unpack(buf)
	require.NoError(t, err)
	gotRes, ok := srv.(*TunnelRes)
	require.True(t, ok)
	assert.Equal(t, TunnelAckOk, gotRes.Status)
}

func TestRoutingIndRoundTrip(t *testing.T) {
	src, err := cemi.ParseIndividualAddr("1.1.1")
	require.NoError(t, err)
	dst, err := cemi.ParseGroupAddr("1/2/3")
	require.NoError(t, err)

	payload := cemi.NewGroupReq(src, dst, cemi.GroupValueWrite, []byte{0x42})
	ind := RoutingInd{Payload: payload}

	buf := packFrame(t, &ind)

	id, srv, err := Unpack(buf)
	require.NoError(t, err)
	assert.Equal(t, RoutingIndService, id)

	got, ok := srv.(*RoutingInd)
	require.True(t, ok)

	gotPayload, ok := got.Payload.(*cemi.LDataReq)
	require.True(t, ok)
	assert.True(t, gotPayload.LData.IsGroupDestined())
	assert.Equal(t, dst, gotPayload.LData.GroupDestination())
}

func TestUnpackRejectsBadHeader(t *testing.T) {
	res := DiscRes{Channel: 1}
	buf := packFrame(t, &res)

	// Corrupt the protocol version byte.
	buf[1] = 0x20
	_, _, err := Unpack(buf)
	assert.Error(t, err)
}

func TestUnpackUnknownServiceYieldsNilPayload(t *testing.T) {
	res := DiscRes{Channel: 1}
	buf := packFrame(t, &res)

	// Overwrite the service id with one this package does not dispatch.
	buf[2], buf[3] = 0x05, 0x31

	id, srv, err := Unpack(buf)
	require.NoError(t, err)
	assert.Equal(t, RoutingLostService, id)
	assert.Nil(t, srv)
}
