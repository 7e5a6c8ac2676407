package session

import (
	"github.com/kelvinyu/signalhub/internal/channel"
	"github.com/kelvinyu/signalhub/internal/util"
	"github.com/kelvinyu/signalhub/internal/wire"
)

// openChannel implements spec.md §4.2 OpenChannel. The channel-name
// duplicate check is evaluated for both network modes — matching the
// reserved ClientServer wire variant's declared error surface — but
// only PeerToPeer ever reaches a real registry insert, since no
// ClientServer implementation exists to own the entry (spec.md §9).
func (c *Connection) openChannel(senderID uint32, m wire.OpenChannelMsg) {
	c.mu.Lock()
	_, dup := c.senderChannels[senderID]
	c.mu.Unlock()
	if dup {
		c.sendSenderErr(senderID, wire.SenderIdAlreadyUsed, "")
		return
	}

	if _, alive := c.reg.Lookup(m.ChannelID); alive {
		c.sendSenderErr(senderID, wire.ChannelIdAlreadyUsed, m.ChannelID)
		return
	}

	if m.Mode == wire.ClientServer {
		util.LogError("open channel %q: ClientServer mode requested, no server-side implementation", m.ChannelID)
		return
	}

	ch := channel.New(m.ChannelID, channel.KindPeerToPeer, c, senderID)
	if !c.reg.Insert(ch) {
		c.sendSenderErr(senderID, wire.ChannelIdAlreadyUsed, m.ChannelID)
		return
	}

	c.mu.Lock()
	c.senderChannels[senderID] = ch
	c.mu.Unlock()

	c.coord.BroadcastOpenChannels()
}

// closeChannel implements spec.md §4.2 CloseChannel.
func (c *Connection) closeChannel(senderID uint32) {
	ch, ok := c.takeOwnedChannel(senderID)
	if !ok {
		c.sendSenderErr(senderID, wire.SenderIdNotExist, "")
		return
	}
	ch.Kill()
	c.reg.Remove([]string{ch.ID})
	c.coord.BroadcastOpenChannels()
}

// sendOffer implements spec.md §4.2 SendOffer (sender direction).
func (c *Connection) sendOffer(senderID uint32, m wire.SendOfferMsg) {
	ch, ok := c.ownedChannel(senderID)
	if !ok {
		return
	}
	ch.SetOffer(m.SDP)
}

func (c *Connection) senderIceCandidate(senderID uint32, m wire.IceCandidateMsg) {
	ch, ok := c.ownedChannel(senderID)
	if !ok {
		return
	}
	ch.AddIce(m.Candidate)
}

func (c *Connection) senderAllIceCandidatesSent(senderID uint32) {
	ch, ok := c.ownedChannel(senderID)
	if !ok {
		return
	}
	ch.MarkAllSent()
}

func (c *Connection) sendBinaryData(senderID uint32, m wire.SendBinaryDataMsg) {
	ch, ok := c.ownedChannel(senderID)
	if !ok {
		return
	}
	ch.ForwardBinaryData(m.Data)
}

// ownedChannel looks up a sender session, replying SenderIdNotExist and
// returning ok=false if it is absent.
func (c *Connection) ownedChannel(senderID uint32) (*channel.Channel, bool) {
	c.mu.Lock()
	ch, ok := c.senderChannels[senderID]
	c.mu.Unlock()
	if !ok {
		c.sendSenderErr(senderID, wire.SenderIdNotExist, "")
		return nil, false
	}
	return ch, true
}

// takeOwnedChannel looks up and removes a sender session in one step.
func (c *Connection) takeOwnedChannel(senderID uint32) (*channel.Channel, bool) {
	c.mu.Lock()
	ch, ok := c.senderChannels[senderID]
	if ok {
		delete(c.senderChannels, senderID)
	}
	c.mu.Unlock()
	return ch, ok
}

// joinChannel implements spec.md §4.2 JoinChannel.
func (c *Connection) joinChannel(receiverID uint32, m wire.JoinChannelMsg) {
	c.mu.Lock()
	_, dup := c.receiverBindings[receiverID]
	c.mu.Unlock()
	if dup {
		c.sendReceiverErr(receiverID, wire.ReceiverIdAlreadyUsed, "")
		return
	}

	ch, alive := c.reg.Lookup(m.ChannelID)
	if !alive {
		c.sendReceiverErr(receiverID, wire.ChannelIsNotExist, m.ChannelID)
		return
	}

	r := channel.NewReceiver(ch.Ref(), c, receiverID)
	if !ch.BindReceiver(r) {
		c.sendReceiverErr(receiverID, wire.ChannelIsAlreadyOccupied, m.ChannelID)
		return
	}

	c.mu.Lock()
	c.receiverBindings[receiverID] = r
	c.mu.Unlock()

	c.coord.BroadcastOpenChannels()
}

// exitChannel implements spec.md §4.2 ExitChannel / §9's re-advertise
// resolution: unbinding is eager, not left to opportunistic GC, so the
// very next broadcast already reflects the channel as free.
func (c *Connection) exitChannel(receiverID uint32) {
	c.mu.Lock()
	r, ok := c.receiverBindings[receiverID]
	if ok {
		delete(c.receiverBindings, receiverID)
	}
	c.mu.Unlock()
	if !ok {
		c.sendReceiverErr(receiverID, wire.ReceiverIdNotExist, "")
		return
	}

	r.Kill()
	if ch, alive := r.Channel.Upgrade(); alive {
		ch.UnbindReceiver(r)
	}
	c.coord.BroadcastOpenChannels()
}

func (c *Connection) sendAnswer(receiverID uint32, m wire.SendAnswerMsg) {
	r, ok := c.boundReceiver(receiverID)
	if !ok {
		return
	}
	r.SetAnswer(m.SDP)
	r.ForwardToSender(wire.ChannelAnswerMsg{SDP: m.SDP})
}

func (c *Connection) receiverIceCandidate(receiverID uint32, m wire.IceCandidateMsg) {
	r, ok := c.boundReceiver(receiverID)
	if !ok {
		return
	}
	r.Ice.Add(m.Candidate)
	r.ForwardToSender(wire.IceCandidateMsg{Candidate: m.Candidate})
}

func (c *Connection) receiverAllIceCandidatesSent(receiverID uint32) {
	r, ok := c.boundReceiver(receiverID)
	if !ok {
		return
	}
	r.Ice.MarkAllSent()
	r.ForwardToSender(wire.AllIceCandidatesSentOutMsg{})
}

// boundReceiver looks up a receiver session, replying ReceiverIdNotExist
// and returning ok=false if it is absent.
func (c *Connection) boundReceiver(receiverID uint32) (*channel.Receiver, bool) {
	c.mu.Lock()
	r, ok := c.receiverBindings[receiverID]
	c.mu.Unlock()
	if !ok {
		c.sendReceiverErr(receiverID, wire.ReceiverIdNotExist, "")
		return nil, false
	}
	return r, true
}
