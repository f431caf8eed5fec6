// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"time"

	"github.com/knxkit/knxtunnel/knx/cemi"
	"github.com/knxkit/knxtunnel/knx/knxnet"
)

// run is the Connection's single-threaded cooperative event loop. All
// state mutation happens here, in handlers invoked by inbound datagrams,
// expiring timers, or application calls arriving on the request channels.
// No lock guards Connection's state fields because nothing outside this
// goroutine ever touches them.
func (c *Connection) run() {
	defer close(c.stopped)
	defer c.closeSubs()

	var (
		connectTimerC      <-chan time.Time
		ackTimerC          <-chan time.Time
		minDelayTimerC     <-chan time.Time
		heartbeatTimerC    <-chan time.Time
		heartbeatAckTimerC <-chan time.Time
		disconnectTimerC   <-chan time.Time
		reconnectTimerC    <-chan time.Time

		connectResult    chan error
		disconnectResult chan error
		connectAttempt   int
	)

	// advance tries to move the queue head in flight and arms whichever
	// timer the attempt produced: an ack timeout if it sent, a
	// minimum-delay timer if the send was deferred to respect
	// config.MinimumDelay, or neither if there was nothing to send.
	advance := func() {
		switch t, sent := c.trySend(); {
		case t == nil:
		case sent:
			ackTimerC = t
		default:
			minDelayTimerC = t
		}
	}

	armHeartbeat := func() {
		heartbeatTimerC = c.scheduler.After(c.tunnelCfg.HeartbeatInterval)
	}

	armReconnect := func() {
		if !c.config.Tunnel.AutoReconnect {
			return
		}
		c.reconnectBackoff = nextBackoff(c.reconnectBackoff, c.tunnelCfg.MaxReconnectBackoff)
		reconnectTimerC = c.scheduler.After(c.reconnectBackoff)
	}

	for {
		select {
		case <-c.closed:
			return

		case result := <-c.connectReq:
			if c.state == Connected {
				result <- nil
				continue
			}
			connectResult = result
			connectAttempt = 0
			c.state = Connecting
			c.notifyConnecting()
			c.sendConnectRequest()
			connectAttempt++
			connectTimerC = c.scheduler.After(c.tunnelCfg.ConnectTimeout)

		case result := <-c.disconnectReq:
			switch c.state {
			case Disconnected:
				result <- nil
			case Disconnecting:
				disconnectResult = result
			default:
				disconnectResult = result
				c.enterDisconnecting()
				disconnectTimerC = c.scheduler.After(c.tunnelCfg.DisconnectTimeout)
			}

		case pw := <-c.writeReq:
			if c.state != Connected {
				pw.result <- ProtocolError{Reason: "write while not connected"}
				continue
			}
			c.queue = append(c.queue, pw)
			if c.pending == nil && minDelayTimerC == nil {
				advance()
			}

		case err := <-c.socket.Errors():
			c.notifyError(MalformedFrame{Reason: err.Error()})

		case srv, ok := <-c.socket.Inbound():
			if !ok {
				return
			}
			c.handleInbound(inboundTimers{
				connectResult:      &connectResult,
				disconnectResult:   &disconnectResult,
				connectTimerC:      &connectTimerC,
				ackTimerC:          &ackTimerC,
				heartbeatTimerC:    &heartbeatTimerC,
				heartbeatAckTimerC: &heartbeatAckTimerC,
				disconnectTimerC:   &disconnectTimerC,
				armHeartbeat:       armHeartbeat,
				armReconnect:       armReconnect,
				advance:            advance,
			}, srv)

		case <-connectTimerC:
			connectTimerC = nil
			if connectAttempt >= c.tunnelCfg.ConnectAttempts {
				c.state = Disconnected
				if connectResult != nil {
					connectResult <- ConnectTimeout{}
					connectResult = nil
				}
				continue
			}
			c.sendConnectRequest()
			connectAttempt++
			connectTimerC = c.scheduler.After(c.tunnelCfg.ConnectTimeout)

		case <-ackTimerC:
			ackTimerC = nil
			if c.pending == nil {
				continue
			}
			if c.pendingAttempts < 1 {
				c.pendingAttempts++
				c.resendPending()
				ackTimerC = c.scheduler.After(c.tunnelCfg.ResponseTimeout)
				continue
			}

			c.failPending(TunnelStalled{Reason: "tunneling ack lost"})
			c.enterDisconnecting()
			disconnectTimerC = c.scheduler.After(c.tunnelCfg.DisconnectTimeout)

		case <-minDelayTimerC:
			minDelayTimerC = nil
			advance()

		case <-heartbeatTimerC:
			heartbeatTimerC = nil
			c.sendHeartbeat()
			heartbeatAckTimerC = c.scheduler.After(c.tunnelCfg.HeartbeatTimeout)

		case <-heartbeatAckTimerC:
			heartbeatAckTimerC = nil
			c.heartbeatFailures++
			if c.heartbeatFailures >= c.tunnelCfg.HeartbeatFailuresAllowed {
				c.notifyError(TunnelStalled{Reason: "heartbeat lost"})
				c.enterDisconnecting()
				disconnectTimerC = c.scheduler.After(c.tunnelCfg.DisconnectTimeout)
				continue
			}
			c.sendHeartbeat()
			heartbeatAckTimerC = c.scheduler.After(c.tunnelCfg.HeartbeatTimeout)

		case <-disconnectTimerC:
			disconnectTimerC = nil
			c.finishDisconnect(disconnectResult)
			disconnectResult = nil
			armReconnect()

		case <-reconnectTimerC:
			reconnectTimerC = nil
			c.state = Connecting
			c.notifyConnecting()
			connectAttempt = 0
			c.sendConnectRequest()
			connectAttempt++
			connectTimerC = c.scheduler.After(c.tunnelCfg.ConnectTimeout)
		}
	}
}

func nextBackoff(prev, max time.Duration) time.Duration {
	if prev <= 0 {
		return time.Second
	}
	next := prev * 2
	if next > max {
		return max
	}
	return next
}

func (c *Connection) sendConnectRequest() {
	local, err := knxnet.HostInfoFromAddress(c.socket.LocalAddr())
	if err != nil {
		c.notifyError(err)
		return
	}
	req := knxnet.NewTunnelConnReq(local)
	if err := c.socket.Send(&req); err != nil {
		c.notifyError(err)
	}
}

func (c *Connection) sendHeartbeat() {
	local, err := knxnet.HostInfoFromAddress(c.socket.LocalAddr())
	if err != nil {
		c.notifyError(err)
		return
	}
	req := knxnet.ConnStateReq{Channel: c.channel, Control: local}
	if err := c.socket.Send(&req); err != nil {
		c.notifyError(err)
	}
}

// trySend moves the queue head into flight, unless config.MinimumDelay has
// not yet elapsed since the last telegram went out. It returns the timer
// the caller should arm next and whether that timer is an ack timeout
// (sent=true) or a deferred minimum-delay wait (sent=false); a nil timer
// means nothing was sent, because the queue is empty or a write is already
// in flight.
func (c *Connection) trySend() (timer <-chan time.Time, sent bool) {
	c.dropExpired()
	if c.pending != nil || len(c.queue) == 0 {
		return nil, false
	}

	if c.config.MinimumDelay > 0 {
		if wait := c.config.MinimumDelay - time.Since(c.lastSendAt); wait > 0 {
			return c.scheduler.After(wait), false
		}
	}

	c.pending, c.queue = c.queue[0], c.queue[1:]
	c.pendingAttempts = 0
	c.transmitPending()
	c.lastSendAt = time.Now()
	return c.scheduler.After(c.tunnelCfg.ResponseTimeout), true
}

// dropExpired releases queued writes older than MaxQueueAge with Expired,
// without disturbing the pending (in-flight) write.
func (c *Connection) dropExpired() {
	if c.tunnelCfg.MaxQueueAge <= 0 || len(c.queue) == 0 {
		return
	}

	fresh := c.queue[:0]
	for _, pw := range c.queue {
		if time.Since(pw.queuedAt) > c.tunnelCfg.MaxQueueAge {
			pw.result <- Expired{}
			continue
		}
		fresh = append(fresh, pw)
	}
	c.queue = fresh
}

func (c *Connection) resendPending() {
	c.transmitPending()
}

func (c *Connection) transmitPending() {
	req := knxnet.TunnelReq{Channel: c.channel, SeqNumber: c.outSeq, Payload: c.pending.msg}
	if err := c.socket.Send(&req); err != nil {
		c.failPending(err)
	}
}

func (c *Connection) failPending(err error) {
	if c.pending != nil {
		c.pending.result <- err
		c.pending = nil
	}
	for _, pw := range c.queue {
		pw.result <- err
	}
	c.queue = nil
}

func (c *Connection) enterDisconnecting() {
	c.state = Disconnecting
	local, err := knxnet.HostInfoFromAddress(c.socket.LocalAddr())
	if err == nil {
		req := knxnet.DiscReq{Channel: c.channel, Control: local}
		c.socket.Send(&req)
	}
	c.failPending(Cancelled{})
}

func (c *Connection) finishDisconnect(result chan error) {
	c.state = Disconnected
	c.channel = 0
	c.outSeq, c.inSeq, c.haveInSeq = 0, 0, false
	c.heartbeatFailures = 0

	if c.config.Handlers.Disconnected != nil {
		c.config.Handlers.Disconnected(nil)
	}
	if result != nil {
		result <- nil
	}
}

func (c *Connection) notifyError(err error) {
	if c.config.Handlers.Error != nil {
		c.config.Handlers.Error(err)
	}
}

func (c *Connection) notifyConnecting() {
	if c.config.Handlers.Connecting != nil {
		c.config.Handlers.Connecting()
	}
}

// inboundTimers bundles pointers to run's timer and result-channel
// variables so handleInbound can rearm or clear them.
type inboundTimers struct {
	connectResult    *chan error
	disconnectResult *chan error

	connectTimerC      *<-chan time.Time
	ackTimerC          *<-chan time.Time
	heartbeatTimerC    *<-chan time.Time
	heartbeatAckTimerC *<-chan time.Time
	disconnectTimerC   *<-chan time.Time

	armHeartbeat func()
	armReconnect func()
	advance      func()
}

func (c *Connection) handleInbound(t inboundTimers, srv knxnet.Service) {
	switch msg := srv.(type) {
	case *knxnet.ConnRes:
		if c.state != Connecting {
			return
		}
		*t.connectTimerC = nil

		if msg.Status != knxnet.ConnResOk {
			c.state = Disconnected
			if *t.connectResult != nil {
				(*t.connectResult) <- ConnectFailed{Status: byte(msg.Status)}
				*t.connectResult = nil
			}
			return
		}

		c.state = Connected
		c.channel = msg.Channel
		c.outSeq, c.inSeq, c.haveInSeq = 0, 0, false
		c.heartbeatFailures = 0
		c.config.PhysAddr = msg.Address
		t.armHeartbeat()

		if c.config.Handlers.Connected != nil {
			c.config.Handlers.Connected(msg.Channel, msg.Address)
		}
		if *t.connectResult != nil {
			(*t.connectResult) <- nil
			*t.connectResult = nil
		}

	case *knxnet.ConnStateRes:
		if c.state != Connected || msg.Channel != c.channel {
			return
		}
		if msg.Status != knxnet.ConnStateResOk {
			return
		}
		*t.heartbeatAckTimerC = nil
		c.heartbeatFailures = 0
		*t.heartbeatTimerC = c.scheduler.After(c.tunnelCfg.HeartbeatInterval)

	case *knxnet.TunnelRes:
		if c.state != Connected || msg.Channel != c.channel || c.pending == nil {
			return
		}
		if msg.SeqNumber != c.outSeq {
			return
		}

		*t.ackTimerC = nil
		c.outSeq++
		c.pending.result <- nil
		c.pending = nil
		t.advance()

	case *knxnet.TunnelReq:
		if c.state != Connected || msg.Channel != c.channel {
			return
		}
		c.handleInboundTunnelReq(msg)

	case *knxnet.DiscReq:
		if msg.Channel != c.channel {
			return
		}
		res := knxnet.DiscRes{Channel: c.channel, Status: 0}
		c.socket.Send(&res)
		c.state = Disconnected
		c.failPending(Cancelled{})
		if c.config.Handlers.Disconnected != nil {
			c.config.Handlers.Disconnected(nil)
		}
		t.armReconnect()

	case *knxnet.DiscRes:
		if c.state != Disconnecting {
			return
		}
		*t.disconnectTimerC = nil
		c.finishDisconnect(*t.disconnectResult)
		*t.disconnectResult = nil
	}
}

func (c *Connection) handleInboundTunnelReq(msg *knxnet.TunnelReq) {
	ack := knxnet.TunnelRes{Channel: c.channel, SeqNumber: msg.SeqNumber, Status: knxnet.TunnelAckOk}

	switch {
	case !c.haveInSeq || msg.SeqNumber == c.inSeq:
		c.socket.Send(&ack)
		c.inSeq = msg.SeqNumber + 1
		c.haveInSeq = true
		c.notifyEvent(msg.Payload)
		c.dispatch(msg.Payload)

	case msg.SeqNumber == c.inSeq-1:
		c.socket.Send(&ack)

	default:
		// Out of window: neither the expected sequence number nor a
		// repeat of the previous one, so it is dropped silently and
		// not acked.
	}
}

// notifyEvent extracts the APCI and raw transport payload from an L_Data
// telegram and hands it to Handlers.Event. Control units (T_ACK/T_NAK/
// T_CONNECT/T_DISCONNECT) carry no application data and are not reported.
func (c *Connection) notifyEvent(msg cemi.Message) {
	if c.config.Handlers.Event == nil {
		return
	}

	var ld *cemi.LData
	switch m := msg.(type) {
	case *cemi.LDataInd:
		ld = &m.LData
	case *cemi.LDataCon:
		ld = &m.LData
	default:
		return
	}

	apci, apdu, ok := cemi.GroupValue(ld.Data)
	if !ok {
		return
	}

	c.config.Handlers.Event(apci, ld.Source, ld.Destination, apdu)
}

// dispatch fans msg out to every active Inbound subscription. A slow
// subscriber that lets its buffer fill loses the message rather than
// stalling the event loop or its fellow subscribers.
func (c *Connection) dispatch(msg cemi.Message) {
	if msg == nil {
		return
	}
	c.subsMu.Lock()
	subs := append([]chan cemi.Message(nil), c.subs...)
	c.subsMu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
			c.logger.Printf("inbound channel full, discarding message: %T", msg)
		}
	}
}

// closeSubs closes every registered Inbound subscription channel. Called
// once, from run's shutdown path.
func (c *Connection) closeSubs() {
	c.subsMu.Lock()
	subs := c.subs
	c.subs = nil
	c.subsMu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}
