// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/knxkit/knxtunnel/knx/cemi"
	"github.com/knxkit/knxtunnel/knx/dpt"
)

// Datapoint binds a group address to a datapoint type and keeps the last
// known value in sync with the bus. It is the single point of DPT
// knowledge for inbound traffic: every L_Data.ind matching its group
// address is decoded with its configured DPT and folded into local state.
type Datapoint struct {
	conn *Connection
	ga   cemi.GroupAddr
	dptID string

	mu    sync.Mutex
	value dpt.DatapointValue

	// confirmCh, when non-nil, receives the outcome of the L_Data.con for
	// the write currently in flight. serve clears it once consumed.
	confirmCh chan error

	onChange []func(dpt.DatapointValue)
	onEvent  []func(apci cemi.APCI, raw []byte)
}

// NewDatapoint constructs a Datapoint bound to conn. It fails with
// ConfigError if the group address cannot be parsed or the DPT identifier
// is unknown.
func NewDatapoint(conn *Connection, config DatapointConfig) (*Datapoint, error) {
	ga, err := cemi.ParseGroupAddr(config.GA)
	if err != nil {
		return nil, ConfigError{Reason: fmt.Sprintf("invalid group address %q: %v", config.GA, err)}
	}

	if _, ok := dpt.BitWidth(config.Dpt); !ok {
		return nil, ConfigError{Reason: fmt.Sprintf("unknown datapoint type %q", config.Dpt)}
	}

	zero, _ := dpt.Produce(config.Dpt)

	d := &Datapoint{
		conn:  conn,
		ga:    ga,
		dptID: dpt.ResolveID(config.Dpt),
		value: zero,
	}

	go d.serve()

	if config.Autoread {
		if err := d.Read(); err != nil {
			return d, err
		}
	}

	return d, nil
}

// GroupAddr returns the bound group address.
func (d *Datapoint) GroupAddr() cemi.GroupAddr { return d.ga }

// Value returns the last known value.
func (d *Datapoint) Value() dpt.DatapointValue {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// OnChange registers a listener invoked when the decoded value differs
// from the previous one.
func (d *Datapoint) OnChange(fn func(dpt.DatapointValue)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = append(d.onChange, fn)
}

// OnEvent registers a listener invoked on every inbound message targeting
// this group address, regardless of whether the value changed.
func (d *Datapoint) OnEvent(fn func(apci cemi.APCI, raw []byte)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onEvent = append(d.onEvent, fn)
}

// Read emits a GroupValue_Read. The value is updated asynchronously once a
// GroupValue_Response (or a GroupValue_Write seen on the bus) arrives.
func (d *Datapoint) Read() error {
	req := cemi.NewGroupReq(d.conn.SourceAddr(), d.ga, cemi.GroupValueRead, nil)
	return d.conn.Send(req)
}

// Write encodes value with the bound DPT, emits GroupValue_Write, and
// waits for the gateway's L_Data.con. On positive confirmation the local
// value is updated; on negative confirmation WriteRejected is returned and
// the value is left unchanged.
func (d *Datapoint) Write(value dpt.DatapointValue) error {
	apdu, err := value.Pack()
	if err != nil {
		return err
	}

	confirm := make(chan error, 1)
	d.mu.Lock()
	d.confirmCh = confirm
	d.mu.Unlock()

	req := cemi.NewGroupReq(d.conn.SourceAddr(), d.ga, cemi.GroupValueWrite, EncodeNPDU(d.dptID, apdu))
	if err := d.conn.Send(req); err != nil {
		d.mu.Lock()
		if d.confirmCh == confirm {
			d.confirmCh = nil
		}
		d.mu.Unlock()
		return err
	}

	select {
	case err := <-confirm:
		if err != nil {
			return err
		}
		d.setValue(value)
		return nil

	case <-d.conn.stopped:
		return errors.New("knx: connection closed")
	}
}

func (d *Datapoint) setValue(value dpt.DatapointValue) {
	d.mu.Lock()
	prev := d.value
	d.value = value
	listeners := append([]func(dpt.DatapointValue){}, d.onChange...)
	d.mu.Unlock()

	if !sameBytes(prev, value) {
		for _, fn := range listeners {
			fn(value)
		}
	}
}

func sameBytes(a, b dpt.DatapointValue) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, aerr := a.Pack()
	bb, berr := b.Pack()
	if aerr != nil || berr != nil {
		return false
	}
	if len(ab) != len(bb) {
		return false
	}
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	return true
}

// serve filters the connection's inbound stream for messages targeting
// this group address.
func (d *Datapoint) serve() {
	for msg := range d.conn.Inbound() {
		ld := lDataOf(msg)
		if ld == nil || !ld.IsGroupDestined() || ld.GroupDestination() != d.ga {
			continue
		}

		if con, ok := msg.(*cemi.LDataCon); ok {
			d.mu.Lock()
			confirm := d.confirmCh
			d.confirmCh = nil
			d.mu.Unlock()

			if confirm != nil {
				if con.Control1.HasError() {
					confirm <- WriteRejected{GroupAddr: uint16(d.ga)}
				} else {
					confirm <- nil
				}
			}
			continue
		}

		apci, npdu, ok := cemi.GroupValue(ld.Data)
		if !ok {
			continue
		}

		d.mu.Lock()
		eventListeners := append([]func(cemi.APCI, []byte){}, d.onEvent...)
		d.mu.Unlock()
		for _, fn := range eventListeners {
			fn(apci, npdu)
		}

		if apci != cemi.GroupValueWrite && apci != cemi.GroupValueResponse {
			continue
		}

		value, ok := dpt.Produce(d.dptID)
		if !ok {
			continue
		}
		if err := value.Unpack(DecodeNPDU(d.dptID, npdu)); err != nil {
			continue
		}

		d.setValue(value)
	}
}

// EncodeNPDU wraps a datapoint's packed application data into the transport
// payload cemi.AppData expects. Datapoints no wider than six bits (e.g.
// 1.001) fit in the low bits of the TPCI/APCI byte and are passed through
// unchanged. Wider datapoints get a leading pad byte so that AppData.Pack's
// APCI overlay only ever touches the pad, never the real value.
func EncodeNPDU(dptID string, raw []byte) []byte {
	if bits, ok := dpt.BitWidth(dptID); ok && bits <= 6 {
		return raw
	}

	npdu := make([]byte, len(raw)+1)
	copy(npdu[1:], raw)
	return npdu
}

// DecodeNPDU strips the pad byte EncodeNPDU added, if any, recovering the
// raw application data a DatapointValue's Unpack expects.
func DecodeNPDU(dptID string, npdu []byte) []byte {
	if bits, ok := dpt.BitWidth(dptID); ok && bits <= 6 {
		return npdu
	}
	if len(npdu) == 0 {
		return npdu
	}
	return npdu[1:]
}

func lDataOf(msg cemi.Message) *cemi.LData {
	switch m := msg.(type) {
	case *cemi.LDataInd:
		return &m.LData
	case *cemi.LDataCon:
		return &m.LData
	default:
		return nil
	}
}
