// Package session implements the per-socket Connection: the inbound
// dispatch loop, the outbound write serialization, and the sender/
// receiver session bookkeeping described in spec.md §4.2.
package session

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kelvinyu/signalhub/internal/channel"
	"github.com/kelvinyu/signalhub/internal/registry"
	"github.com/kelvinyu/signalhub/internal/util"
	"github.com/kelvinyu/signalhub/internal/wire"
)

// Coordinator is the hub-level surface a Connection needs: recompute
// and broadcast the open-channel snapshot, and forget this connection
// once its worker exits (spec.md §4.3, §4.5).
type Coordinator interface {
	BroadcastOpenChannels()
	Forget(id uint32)
}

// Connection owns one WebSocket and the sender/receiver sessions
// multiplexed over it (spec.md §3 Connection entity). All writes to
// its socket are serialized by outMu; message handlers run one at a
// time on the single goroutine that calls Run, so the session-local
// maps need no lock of their own beyond what guards concurrent
// Close/teardown.
type Connection struct {
	id    uint32
	ws    *websocket.Conn
	reg   *registry.Registry
	coord Coordinator

	outMu sync.Mutex

	mu               sync.Mutex
	senderChannels   map[uint32]*channel.Channel
	receiverBindings map[uint32]*channel.Receiver
}

// New wraps an already-upgraded WebSocket as a Connection identified
// by id.
func New(id uint32, ws *websocket.Conn, reg *registry.Registry, coord Coordinator) *Connection {
	return &Connection{
		id:               id,
		ws:               ws,
		reg:              reg,
		coord:            coord,
		senderChannels:   make(map[uint32]*channel.Channel),
		receiverBindings: make(map[uint32]*channel.Receiver),
	}
}

// ID returns the connection id the hub assigned.
func (c *Connection) ID() uint32 { return c.id }

// SendServer encodes and writes msg as one binary WebSocket frame,
// serialized against every other writer of this connection (spec.md
// §4.2 outbound contract). A write failure is logged and dropped —
// never fatal to the process; persistent failures surface on the next
// inbound read (spec.md §7 category 3).
func (c *Connection) SendServer(msg wire.ServerMessage) {
	data := wire.EncodeServer(msg)
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		util.LogError("connection %d: send failed: %v", c.id, err)
	}
}

// Run reads and dispatches inbound frames until the socket closes or a
// transport/protocol error terminates the session, then tears down
// every channel and binding this connection owned.
func (c *Connection) Run() {
	defer c.teardown()

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			util.LogDebug("connection %d: closed (%v)", c.id, err)
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			m, err := wire.DecodeClient(data)
			if err != nil {
				util.LogError("connection %d: %v", c.id, err)
				continue
			}
			util.LogDebug("connection %d: inbound kind=%d sender=%d receiver=%d",
				c.id, m.Kind, m.SenderID, m.ReceiverID)
			c.dispatch(m)
		default:
			util.LogError("connection %d: unexpected frame type %d, closing", c.id, msgType)
			return
		}
	}
}

// Close closes the underlying socket, unblocking Run's read.
func (c *Connection) Close() { c.ws.Close() }

func (c *Connection) teardown() {
	c.ws.Close()

	c.mu.Lock()
	ownedIDs := make([]string, 0, len(c.senderChannels))
	for _, ch := range c.senderChannels {
		ch.Kill()
		ownedIDs = append(ownedIDs, ch.ID)
	}
	c.senderChannels = nil

	for _, r := range c.receiverBindings {
		r.Kill()
		if ch, alive := r.Channel.Upgrade(); alive {
			ch.UnbindReceiver(r)
		}
	}
	c.receiverBindings = nil
	c.mu.Unlock()

	c.reg.Remove(ownedIDs)
	c.coord.Forget(c.id)
	c.coord.BroadcastOpenChannels()
}

func (c *Connection) dispatch(m wire.ClientMessage) {
	switch m.Kind {
	case wire.ClientMessageSender:
		c.dispatchSender(m.SenderID, m.SenderMsg)
	case wire.ClientMessageReceiver:
		c.dispatchReceiver(m.ReceiverID, m.ReceiverMsg)
	}
}

func (c *Connection) dispatchSender(id uint32, msg wire.ClientSenderMessage) {
	switch m := msg.(type) {
	case wire.OpenChannelMsg:
		c.openChannel(id, m)
	case wire.CloseChannelMsg:
		c.closeChannel(id)
	case wire.SendOfferMsg:
		c.sendOffer(id, m)
	case wire.IceCandidateMsg:
		c.senderIceCandidate(id, m)
	case wire.AllIceCandidatesSentMsg:
		c.senderAllIceCandidatesSent(id)
	case wire.SendBinaryDataMsg:
		c.sendBinaryData(id, m)
	}
}

func (c *Connection) dispatchReceiver(id uint32, msg wire.ClientReceiverMessage) {
	switch m := msg.(type) {
	case wire.JoinChannelMsg:
		c.joinChannel(id, m)
	case wire.ExitChannelMsg:
		c.exitChannel(id)
	case wire.SendAnswerMsg:
		c.sendAnswer(id, m)
	case wire.IceCandidateMsg:
		c.receiverIceCandidate(id, m)
	case wire.AllIceCandidatesSentMsg:
		c.receiverAllIceCandidatesSent(id)
	}
}

func (c *Connection) sendSenderErr(id uint32, kind wire.ServerSenderErrorKind, channelID string) {
	c.SendServer(wire.ServerMessage{
		Kind:     wire.ServerMessageSender,
		SenderID: id,
		SenderMsg: wire.SenderErrorMsg{
			Err: wire.ServerSenderError{Kind: kind, ChannelID: channelID},
		},
	})
}

func (c *Connection) sendReceiverErr(id uint32, kind wire.ServerReceiverErrorKind, channelID string) {
	c.SendServer(wire.ServerMessage{
		Kind:       wire.ServerMessageReceiver,
		ReceiverID: id,
		ReceiverMsg: wire.ReceiverErrorMsg{
			Err: wire.ServerReceiverError{Kind: kind, ChannelID: channelID},
		},
	})
}
