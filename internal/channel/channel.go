// Package channel implements the rendezvous object a sender opens and
// at most one receiver binds to (spec.md §3, §4.4): the accumulated
// SDP offer/answer and ICE candidates, and the state machine governing
// advertiseability.
package channel

import (
	"sync"

	"github.com/kelvinyu/signalhub/internal/util"
	"github.com/kelvinyu/signalhub/internal/weakref"
	"github.com/kelvinyu/signalhub/internal/wire"
)

// Sink is the minimal outbound surface a Channel needs from a
// connection to forward a message to one of its sessions. Implemented
// by *session.Connection; kept as an interface here so that channel
// has no dependency on session — the fixed lock order from spec.md §5
// is registry → channel field → peer outbound, and importing session
// would invert it.
type Sink interface {
	SendServer(msg wire.ServerMessage)
}

// IceAccumulator is the append-only candidate list plus the
// "all sent" flag described in spec.md §3, used for the receiver's
// answer-direction state. Setting a new candidate clears the flag;
// only MarkAllSent sets it. The sender-direction accumulator lives
// inline on Channel instead (see the comment on Channel.mu) because it
// must be mutated and replayed under one joint critical section with
// the channel's receiver slot.
type IceAccumulator struct {
	mu         sync.RWMutex
	candidates []wire.ICECandidate
	allSent    bool
}

func (a *IceAccumulator) Add(c wire.ICECandidate) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.candidates = append(a.candidates, c)
	a.allSent = false
}

func (a *IceAccumulator) MarkAllSent() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allSent = true
}

// Snapshot returns a copy of the accumulated candidates and the
// current AllSent flag, taken under a single read lock.
func (a *IceAccumulator) Snapshot() ([]wire.ICECandidate, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]wire.ICECandidate, len(a.candidates))
	copy(out, a.candidates)
	return out, a.allSent
}

// Receiver is a bound receiver's state: the parent Channel (held
// weakly — the channel may die before the receiver's own connection
// does), the owning connection's outbound sink, the session id the
// receiver chose, and its own offer/ICE mirror for the answer
// direction. Message handlers run sequentially per socket (spec.md
// §5), so a single Receiver is never mutated concurrently with itself;
// Ice still carries its own lock because Channel.Occupied and GC-style
// cleanup can read a dead receiver's fields from another goroutine.
type Receiver struct {
	weakref.Owned[Receiver]

	Channel   weakref.Ref[Channel]
	Sink      Sink
	SessionID uint32

	mu     sync.RWMutex
	answer *string

	Ice IceAccumulator
}

// NewReceiver constructs a live Receiver bound to parent.
func NewReceiver(parent weakref.Ref[Channel], sink Sink, sessionID uint32) *Receiver {
	r := &Receiver{Channel: parent, Sink: sink, SessionID: sessionID}
	r.Init()
	return r
}

// SetAnswer atomically replaces the stored answer.
func (r *Receiver) SetAnswer(sdp string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answer = &sdp
}

// ForwardToSender sends msg to the channel's owning sender, if the
// channel is still alive.
func (r *Receiver) ForwardToSender(msg wire.ServerSenderMessage) {
	ch, alive := r.Channel.Upgrade()
	if !alive {
		return
	}
	ch.SenderSink.SendServer(wire.ServerMessage{
		Kind:      wire.ServerMessageSender,
		SenderID:  ch.SenderSessionID,
		SenderMsg: msg,
	})
}

// Kind discriminates the two channel topologies. Only PeerToPeer has a
// server-side implementation (spec.md §9); ClientServer carries a
// reserved, never-populated receiver set to document the wire contract
// without implying any fan-out behavior.
type Kind int

const (
	KindPeerToPeer Kind = iota
	KindClientServer
)

// Channel is the server-side rendezvous object: one sender and, in
// PeerToPeer mode, at most one bound receiver, held weakly from the
// Channel's side so that the receiver's own connection is the sole
// strong owner (spec.md §3, §9).
//
// mu guards the sender's offer, its ICE accumulator, and the bound
// receiver slot together, as one lock, rather than three independent
// ones. spec.md §5 requires that JoinChannel's replay run inside "one
// critical section that encompasses enqueueing all replay frames" over
// the offer+ICE state, with any concurrent sender-side mutation
// strictly ordered before or after it — a single mutex covering bind,
// replay, and every sender-side mutate-then-forward step gives that
// for free, since a racing SetOffer/AddIce/MarkAllSent cannot run
// between the new receiver's bind and its replay.
type Channel struct {
	weakref.Owned[Channel]

	ID              string
	Kind            Kind
	SenderSink      Sink
	SenderSessionID uint32

	mu         sync.Mutex
	offer      *string
	candidates []wire.ICECandidate
	allSent    bool
	receiver   weakref.Ref[Receiver]

	// csReceivers is the reserved ClientServer receiver set named by
	// the original protocol (signaling-protocol ChannelKind::ClientServer);
	// spec.md §9 resolves the open question as "silent drop", so no
	// handler ever appends to it.
	csReceivers []weakref.Ref[Receiver]
}

// New constructs a live Channel owned by sink under sessionID.
func New(id string, kind Kind, sink Sink, sessionID uint32) *Channel {
	c := &Channel{ID: id, Kind: kind, SenderSink: sink, SenderSessionID: sessionID}
	c.Init()
	return c
}

// Ref returns a weak reference to c.
func (c *Channel) Ref() weakref.Ref[Channel] { return weakref.Of(c, &c.Owned) }

// SetOffer replaces the stored offer and, if a receiver is bound,
// forwards it as ChannelOfferMsg.
func (c *Channel) SetOffer(sdp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offer = &sdp
	if r, alive := c.receiver.Upgrade(); alive {
		r.Sink.SendServer(wire.ServerMessage{
			Kind:        wire.ServerMessageReceiver,
			ReceiverID:  r.SessionID,
			ReceiverMsg: wire.ChannelOfferMsg{SDP: sdp},
		})
	}
}

// AddIce appends an ICE candidate, clears AllSent, and forwards it to
// the bound receiver if any.
func (c *Channel) AddIce(cand wire.ICECandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candidates = append(c.candidates, cand)
	c.allSent = false
	if r, alive := c.receiver.Upgrade(); alive {
		r.Sink.SendServer(wire.ServerMessage{
			Kind:        wire.ServerMessageReceiver,
			ReceiverID:  r.SessionID,
			ReceiverMsg: wire.IceCandidateMsg{Candidate: cand},
		})
	}
}

// MarkAllSent sets AllSent and forwards it to the bound receiver.
func (c *Channel) MarkAllSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allSent = true
	if r, alive := c.receiver.Upgrade(); alive {
		r.Sink.SendServer(wire.ServerMessage{
			Kind:        wire.ServerMessageReceiver,
			ReceiverID:  r.SessionID,
			ReceiverMsg: wire.AllIceCandidatesSentOutMsg{},
		})
	}
}

// ForwardBinaryData forwards data to the bound receiver, if any.
func (c *Channel) ForwardBinaryData(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, alive := c.receiver.Upgrade(); alive {
		util.Stats.AddForwarded(len(data))
		r.Sink.SendServer(wire.ServerMessage{
			Kind:        wire.ServerMessageReceiver,
			ReceiverID:  r.SessionID,
			ReceiverMsg: wire.BinaryDataMsg{Data: data},
		})
	}
}

// BindReceiver attaches r as the channel's sole bound receiver and
// replays the current offer/ICE state to it, atomically with respect
// to any concurrent sender-side mutation (see the comment on mu).
// Returns false, without modifying state or sending anything, if the
// channel is not PeerToPeer or a live receiver is already bound
// (spec.md §4.2 JoinChannel, §4.4 Occupied state).
func (c *Channel) BindReceiver(r *Receiver) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Kind != KindPeerToPeer {
		return false
	}
	if _, alive := c.receiver.Upgrade(); alive {
		return false
	}
	c.receiver = weakref.Of(r, &r.Owned)

	if c.offer != nil {
		r.Sink.SendServer(wire.ServerMessage{
			Kind:        wire.ServerMessageReceiver,
			ReceiverID:  r.SessionID,
			ReceiverMsg: wire.ChannelOfferMsg{SDP: *c.offer},
		})
	}
	for _, cand := range c.candidates {
		r.Sink.SendServer(wire.ServerMessage{
			Kind:        wire.ServerMessageReceiver,
			ReceiverID:  r.SessionID,
			ReceiverMsg: wire.IceCandidateMsg{Candidate: cand},
		})
	}
	if c.allSent {
		r.Sink.SendServer(wire.ServerMessage{
			Kind:        wire.ServerMessageReceiver,
			ReceiverID:  r.SessionID,
			ReceiverMsg: wire.AllIceCandidatesSentOutMsg{},
		})
	}
	return true
}

// UnbindReceiver clears the channel's receiver slot iff it currently
// points at r, making the channel advertiseable again (spec.md §9:
// re-advertise on ExitChannel).
func (c *Channel) UnbindReceiver(r *Receiver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, alive := c.receiver.Upgrade(); alive && cur == r {
		c.receiver = weakref.Ref[Receiver]{}
	}
}

// Occupied reports whether a live receiver is currently bound. A
// PeerToPeer channel is advertiseable iff it is not Occupied; a
// ClientServer channel is always advertiseable (spec.md §4.3).
func (c *Channel) Occupied() bool {
	if c.Kind != KindPeerToPeer {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, alive := c.receiver.Upgrade(); alive {
		return true
	}
	c.receiver = weakref.Ref[Receiver]{} // purge a stale entry opportunistically
	return false
}

// Advertiseable reports whether the channel belongs in the broadcast
// open-set (spec.md §4.3, §4.4).
func (c *Channel) Advertiseable() bool { return !c.Occupied() }
