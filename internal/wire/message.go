// Package wire defines the tagged-union message set exchanged between a
// signaling endpoint and the hub, and encodes/decodes it to the framed
// binary layout mandated by spec.md §6: little-endian fields, an 8-byte
// length prefix ahead of every string/bytes/vector, a one-byte Option
// tag, and a 32-bit little-endian enum discriminant in declaration
// order. One WebSocket binary frame carries exactly one message.
package wire

// NetworkMode selects how a channel's receiver side is bound. Only
// PeerToPeer has a server-side implementation; ClientServer is
// reserved on the wire (spec.md §9).
type NetworkMode uint32

const (
	PeerToPeer NetworkMode = iota
	ClientServer
)

func (m NetworkMode) String() string {
	if m == ClientServer {
		return "ClientServer"
	}
	return "PeerToPeer"
}

// ICECandidate is an opaque network-path proposal; the hub never
// inspects its fields beyond forwarding them.
type ICECandidate struct {
	Candidate     string
	SDPMid        *string
	SDPMLineIndex *uint16
}

// ---------------------------------------------------------------------
// Client -> hub
// ---------------------------------------------------------------------

// ClientMessage is the envelope a connection sends inbound: exactly one
// of SenderMsg or ReceiverMsg is meaningful, selected by Kind.
type ClientMessage struct {
	Kind        ClientMessageKind
	SenderID    uint32
	ReceiverID  uint32
	SenderMsg   ClientSenderMessage
	ReceiverMsg ClientReceiverMessage
}

// ClientMessageKind is the tag distinguishing the two ClientMessage
// envelope variants, in wire-declaration order.
type ClientMessageKind uint32

const (
	ClientMessageSender ClientMessageKind = iota
	ClientMessageReceiver
)

// ClientSenderMessage is the sum type of payloads a sender session may
// send. Concrete variants implement this marker interface.
type ClientSenderMessage interface{ clientSenderMessage() }

// ClientReceiverMessage is the sum type of payloads a receiver session
// may send.
type ClientReceiverMessage interface{ clientReceiverMessage() }

// OpenChannelMsg requests creation of a new channel (variant 0).
type OpenChannelMsg struct {
	ChannelID string
	Mode      NetworkMode
}

// CloseChannelMsg tears down the caller's owned channel (variant 1).
type CloseChannelMsg struct{}

// SendOfferMsg carries a fresh SDP offer (variant 2).
type SendOfferMsg struct{ SDP string }

// IceCandidateMsg carries one ICE candidate. It is variant 3 in both
// the sender and the receiver unions, so it implements both marker
// interfaces.
type IceCandidateMsg struct{ Candidate ICECandidate }

// AllIceCandidatesSentMsg closes the trickle-ICE accumulator. Variant 4
// in both unions.
type AllIceCandidatesSentMsg struct{}

// SendBinaryDataMsg is the best-effort out-of-band data path (variant
// 5, sender-only).
type SendBinaryDataMsg struct{ Data []byte }

// JoinChannelMsg binds the caller as the receiver of a channel (variant
// 0, receiver-only).
type JoinChannelMsg struct{ ChannelID string }

// ExitChannelMsg unbinds the caller from its joined channel (variant 1,
// receiver-only).
type ExitChannelMsg struct{}

// SendAnswerMsg carries a fresh SDP answer (variant 2, receiver-only).
type SendAnswerMsg struct{ SDP string }

func (OpenChannelMsg) clientSenderMessage()          {}
func (CloseChannelMsg) clientSenderMessage()         {}
func (SendOfferMsg) clientSenderMessage()            {}
func (IceCandidateMsg) clientSenderMessage()         {}
func (AllIceCandidatesSentMsg) clientSenderMessage() {}
func (SendBinaryDataMsg) clientSenderMessage()       {}

func (JoinChannelMsg) clientReceiverMessage()          {}
func (ExitChannelMsg) clientReceiverMessage()          {}
func (SendAnswerMsg) clientReceiverMessage()           {}
func (IceCandidateMsg) clientReceiverMessage()         {}
func (AllIceCandidatesSentMsg) clientReceiverMessage() {}

// ---------------------------------------------------------------------
// Hub -> client
// ---------------------------------------------------------------------

// ServerMessageKind is the tag distinguishing the three top-level
// ServerMessage variants, in wire-declaration order.
type ServerMessageKind uint32

const (
	ServerMessageOpenChannelIdsChanged ServerMessageKind = iota
	ServerMessageSender
	ServerMessageReceiver
)

// ServerMessage is the envelope the hub sends outbound.
type ServerMessage struct {
	Kind        ServerMessageKind
	ChannelIDs  []string // OpenChannelIdsChanged
	SenderID    uint32   // Sender
	ReceiverID  uint32   // Receiver
	SenderMsg   ServerSenderMessage
	ReceiverMsg ServerReceiverMessage
}

// ServerSenderMessage is the sum type of payloads the hub sends to a
// sender session.
type ServerSenderMessage interface{ serverSenderMessage() }

// ServerReceiverMessage is the sum type of payloads the hub sends to a
// receiver session.
type ServerReceiverMessage interface{ serverReceiverMessage() }

// OpenChannelSuccessMsg confirms OpenChannelMsg (variant 0).
type OpenChannelSuccessMsg struct{}

// ChannelAnswerMsg forwards an SDP answer to the sender (variant 1).
type ChannelAnswerMsg struct{ SDP string }

// AllIceCandidatesSentOutMsg forwards AllIceCandidatesSent (variant 3
// in both server unions).
type AllIceCandidatesSentOutMsg struct{}

// SenderErrorMsg wraps a sender-side protocol error (variant 4).
type SenderErrorMsg struct{ Err ServerSenderError }

// JoinChannelSuccessMsg confirms JoinChannelMsg (variant 0).
type JoinChannelSuccessMsg struct{}

// ChannelOfferMsg forwards an SDP offer to the receiver (variant 1).
type ChannelOfferMsg struct{ SDP string }

// BinaryDataMsg forwards an out-of-band payload (variant 4).
type BinaryDataMsg struct{ Data []byte }

// ReceiverErrorMsg wraps a receiver-side protocol error (variant 5).
type ReceiverErrorMsg struct{ Err ServerReceiverError }

func (OpenChannelSuccessMsg) serverSenderMessage()     {}
func (ChannelAnswerMsg) serverSenderMessage()          {}
func (IceCandidateMsg) serverSenderMessage()           {}
func (AllIceCandidatesSentOutMsg) serverSenderMessage() {}
func (SenderErrorMsg) serverSenderMessage()            {}

func (JoinChannelSuccessMsg) serverReceiverMessage()     {}
func (ChannelOfferMsg) serverReceiverMessage()           {}
func (IceCandidateMsg) serverReceiverMessage()           {}
func (AllIceCandidatesSentOutMsg) serverReceiverMessage() {}
func (BinaryDataMsg) serverReceiverMessage()             {}
func (ReceiverErrorMsg) serverReceiverMessage()          {}
