package knx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knxkit/knxtunnel/knx/cemi"
	"github.com/knxkit/knxtunnel/knx/dpt"
	"github.com/knxkit/knxtunnel/knx/knxnet"
)

func dialForDatapoint(t *testing.T, gw *fakeGateway) *Connection {
	t.Helper()
	conn, err := Dial(ClientConfig{
		IPAddr: "127.0.0.1",
		IPPort: uint16(gw.port()),
		Tunnel: testTunnelConfig(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDatapointReadTriggersOnChange(t *testing.T) {
	ga, err := cemi.ParseGroupAddr("1/2/4")
	require.NoError(t, err)

	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))
	gw.onTunnelReq = func(gw *fakeGateway, req *knxnet.TunnelReq) {
		ldreq, ok := req.Payload.(*cemi.LDataReq)
		if !ok {
			return
		}
		apci, _, ok := cemi.GroupValue(ldreq.LData.Data)
		if !ok || apci != cemi.GroupValueRead || ldreq.LData.GroupDestination() != ga {
			return
		}

		raw, err := dpt.DPT_9001(21.5).Pack()
		require.NoError(t, err)

		// 9.001 is wider than 6 bits, so the gateway's npdu carries a
		// leading pad byte ahead of the real application data; see
		// EncodeNPDU/DecodeNPDU.
		npdu := append([]byte{0x00}, raw...)

		ind := &cemi.LDataInd{LData: cemi.LData{
			Control1:    ldreq.LData.Control1,
			Control2:    ldreq.LData.Control2,
			Source:      cemi.IndividualAddr(0x1105),
			Destination: uint16(ga),
			Data:        &cemi.AppData{Command: cemi.GroupValueResponse, Data: npdu},
		}}
		gw.sendInbound(ind)
	}

	conn := dialForDatapoint(t, gw)

	dp, err := NewDatapoint(conn, DatapointConfig{GA: "1/2/4", Dpt: "9.001"})
	require.NoError(t, err)

	changed := make(chan dpt.DatapointValue, 1)
	dp.OnChange(func(v dpt.DatapointValue) { changed <- v })

	require.NoError(t, dp.Read())

	select {
	case v := <-changed:
		got, ok := v.(*dpt.DPT_9001)
		require.True(t, ok)
		assert.InDelta(t, 21.5, float64(*got), 0.01)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for OnChange")
	}
}

func TestDatapointWriteConfirmedUpdatesValue(t *testing.T) {
	ga, err := cemi.ParseGroupAddr("1/2/5")
	require.NoError(t, err)

	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))
	gw.onTunnelReq = func(gw *fakeGateway, req *knxnet.TunnelReq) {
		ldreq, ok := req.Payload.(*cemi.LDataReq)
		if !ok {
			return
		}
		apci, _, ok := cemi.GroupValue(ldreq.LData.Data)
		if !ok || apci != cemi.GroupValueWrite || ldreq.LData.GroupDestination() != ga {
			return
		}

		con := &cemi.LDataCon{LData: ldreq.LData}
		gw.sendInbound(con)
	}

	conn := dialForDatapoint(t, gw)

	dp, err := NewDatapoint(conn, DatapointConfig{GA: "1/2/5", Dpt: "1.001"})
	require.NoError(t, err)

	v := dpt.DPT_1001(true)
	require.NoError(t, dp.Write(&v))

	got, ok := dp.Value().(*dpt.DPT_1001)
	require.True(t, ok)
	assert.True(t, bool(*got))
}

func TestDatapointWriteRejectedLeavesValueUnchanged(t *testing.T) {
	ga, err := cemi.ParseGroupAddr("1/2/6")
	require.NoError(t, err)

	gw := newFakeGateway(t, cemi.IndividualAddr(0x1105))
	gw.onTunnelReq = func(gw *fakeGateway, req *knxnet.TunnelReq) {
		ldreq, ok := req.Payload.(*cemi.LDataReq)
		if !ok {
			return
		}
		apci, _, ok := cemi.GroupValue(ldreq.LData.Data)
		if !ok || apci != cemi.GroupValueWrite || ldreq.LData.GroupDestination() != ga {
			return
		}

		failed := ldreq.LData
		failed.Control1 |= cemi.Control1HasError
		con := &cemi.LDataCon{LData: failed}
		gw.sendInbound(con)
	}

	conn := dialForDatapoint(t, gw)

	dp, err := NewDatapoint(conn, DatapointConfig{GA: "1/2/6", Dpt: "1.001"})
	require.NoError(t, err)

	before := dp.Value()

	v := dpt.DPT_1001(true)
	err = dp.Write(&v)
	require.Error(t, err)
	assert.IsType(t, WriteRejected{}, err)

	assert.Equal(t, before, dp.Value())
}
