package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// DecodeError is returned for any malformed byte sequence. Per spec.md
// §4.1 the codec is total over well-formed input, so every failure here
// is attributable to a specific field; the session logs it and
// continues (spec.md §7 category 2).
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("wire: decode %s: %v", e.Field, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

var errTruncated = errors.New("truncated frame")
var errBadTag = errors.New("unknown tag")
var errBadOption = errors.New("option tag must be 0 or 1")

// ---------------------------------------------------------------------
// writer
// ---------------------------------------------------------------------

type writer struct{ buf []byte }

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) boolean(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) bytes(b []byte) {
	w.u64(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) str(s string) { w.bytes([]byte(s)) }

func (w *writer) optionStr(s *string) {
	if s == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.str(*s)
}

func (w *writer) optionU16(v *uint16) {
	if v == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.u16(*v)
}

func (w *writer) ice(c ICECandidate) {
	w.str(c.Candidate)
	w.optionStr(c.SDPMid)
	w.optionU16(c.SDPMLineIndex)
}

// ---------------------------------------------------------------------
// reader
// ---------------------------------------------------------------------

type reader struct {
	buf []byte
	pos int
}

func (r *reader) need(n int) error {
	if len(r.buf)-r.pos < n {
		return errTruncated
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) boolean() (bool, error) {
	v, err := r.u8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errBadOption
	}
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

const maxVarLen = 64 * 1024 * 1024 // sanity cap against hostile length prefixes

func (r *reader) bytes() ([]byte, error) {
	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	if n > maxVarLen {
		return nil, fmt.Errorf("length %d exceeds sanity cap", n)
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b, nil
}

func (r *reader) str() (string, error) {
	b, err := r.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) optionStr() (*string, error) {
	tag, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		s, err := r.str()
		if err != nil {
			return nil, err
		}
		return &s, nil
	default:
		return nil, errBadOption
	}
}

func (r *reader) optionU16() (*uint16, error) {
	tag, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, errBadOption
	}
}

func (r *reader) ice() (ICECandidate, error) {
	cand, err := r.str()
	if err != nil {
		return ICECandidate{}, err
	}
	mid, err := r.optionStr()
	if err != nil {
		return ICECandidate{}, err
	}
	idx, err := r.optionU16()
	if err != nil {
		return ICECandidate{}, err
	}
	return ICECandidate{Candidate: cand, SDPMid: mid, SDPMLineIndex: idx}, nil
}

func (r *reader) atEnd() bool { return r.pos == len(r.buf) }

// ---------------------------------------------------------------------
// ClientMessage
// ---------------------------------------------------------------------

// EncodeClient serializes a ClientMessage for one WebSocket binary
// frame.
func EncodeClient(m ClientMessage) []byte {
	w := &writer{}
	w.u32(uint32(m.Kind))
	switch m.Kind {
	case ClientMessageSender:
		w.u32(m.SenderID)
		encodeClientSender(w, m.SenderMsg)
	case ClientMessageReceiver:
		w.u32(m.ReceiverID)
		encodeClientReceiver(w, m.ReceiverMsg)
	}
	return w.buf
}

func encodeClientSender(w *writer, msg ClientSenderMessage) {
	switch v := msg.(type) {
	case OpenChannelMsg:
		w.u32(0)
		w.str(v.ChannelID)
		w.u32(uint32(v.Mode))
	case CloseChannelMsg:
		w.u32(1)
	case SendOfferMsg:
		w.u32(2)
		w.str(v.SDP)
	case IceCandidateMsg:
		w.u32(3)
		w.ice(v.Candidate)
	case AllIceCandidatesSentMsg:
		w.u32(4)
	case SendBinaryDataMsg:
		w.u32(5)
		w.bytes(v.Data)
	}
}

func encodeClientReceiver(w *writer, msg ClientReceiverMessage) {
	switch v := msg.(type) {
	case JoinChannelMsg:
		w.u32(0)
		w.str(v.ChannelID)
	case ExitChannelMsg:
		w.u32(1)
	case SendAnswerMsg:
		w.u32(2)
		w.str(v.SDP)
	case IceCandidateMsg:
		w.u32(3)
		w.ice(v.Candidate)
	case AllIceCandidatesSentMsg:
		w.u32(4)
	}
}

// DecodeClient parses one WebSocket binary frame into a ClientMessage.
func DecodeClient(data []byte) (ClientMessage, error) {
	r := &reader{buf: data}
	kindRaw, err := r.u32()
	if err != nil {
		return ClientMessage{}, &DecodeError{"ClientMessage.Kind", err}
	}

	var m ClientMessage
	switch ClientMessageKind(kindRaw) {
	case ClientMessageSender:
		m.Kind = ClientMessageSender
		id, err := r.u32()
		if err != nil {
			return ClientMessage{}, &DecodeError{"sender_id", err}
		}
		m.SenderID = id
		msg, err := decodeClientSender(r)
		if err != nil {
			return ClientMessage{}, err
		}
		m.SenderMsg = msg
	case ClientMessageReceiver:
		m.Kind = ClientMessageReceiver
		id, err := r.u32()
		if err != nil {
			return ClientMessage{}, &DecodeError{"receiver_id", err}
		}
		m.ReceiverID = id
		msg, err := decodeClientReceiver(r)
		if err != nil {
			return ClientMessage{}, err
		}
		m.ReceiverMsg = msg
	default:
		return ClientMessage{}, &DecodeError{"ClientMessage.Kind", errBadTag}
	}

	if !r.atEnd() {
		return ClientMessage{}, &DecodeError{"ClientMessage", errors.New("trailing bytes")}
	}
	return m, nil
}

func decodeClientSender(r *reader) (ClientSenderMessage, error) {
	tag, err := r.u32()
	if err != nil {
		return nil, &DecodeError{"ClientSenderMessage.tag", err}
	}
	switch tag {
	case 0:
		id, err := r.str()
		if err != nil {
			return nil, &DecodeError{"OpenChannel.channel_id", err}
		}
		mode, err := r.u32()
		if err != nil {
			return nil, &DecodeError{"OpenChannel.mode", err}
		}
		return OpenChannelMsg{ChannelID: id, Mode: NetworkMode(mode)}, nil
	case 1:
		return CloseChannelMsg{}, nil
	case 2:
		sdp, err := r.str()
		if err != nil {
			return nil, &DecodeError{"SendOffer.sdp", err}
		}
		return SendOfferMsg{SDP: sdp}, nil
	case 3:
		c, err := r.ice()
		if err != nil {
			return nil, &DecodeError{"IceCandidate", err}
		}
		return IceCandidateMsg{Candidate: c}, nil
	case 4:
		return AllIceCandidatesSentMsg{}, nil
	case 5:
		b, err := r.bytes()
		if err != nil {
			return nil, &DecodeError{"SendBinaryData.data", err}
		}
		return SendBinaryDataMsg{Data: b}, nil
	default:
		return nil, &DecodeError{"ClientSenderMessage.tag", errBadTag}
	}
}

func decodeClientReceiver(r *reader) (ClientReceiverMessage, error) {
	tag, err := r.u32()
	if err != nil {
		return nil, &DecodeError{"ClientReceiverMessage.tag", err}
	}
	switch tag {
	case 0:
		id, err := r.str()
		if err != nil {
			return nil, &DecodeError{"JoinChannel.channel_id", err}
		}
		return JoinChannelMsg{ChannelID: id}, nil
	case 1:
		return ExitChannelMsg{}, nil
	case 2:
		sdp, err := r.str()
		if err != nil {
			return nil, &DecodeError{"SendAnswer.sdp", err}
		}
		return SendAnswerMsg{SDP: sdp}, nil
	case 3:
		c, err := r.ice()
		if err != nil {
			return nil, &DecodeError{"IceCandidate", err}
		}
		return IceCandidateMsg{Candidate: c}, nil
	case 4:
		return AllIceCandidatesSentMsg{}, nil
	default:
		return nil, &DecodeError{"ClientReceiverMessage.tag", errBadTag}
	}
}

// ---------------------------------------------------------------------
// ServerMessage
// ---------------------------------------------------------------------

// EncodeServer serializes a ServerMessage for one WebSocket binary
// frame.
func EncodeServer(m ServerMessage) []byte {
	w := &writer{}
	w.u32(uint32(m.Kind))
	switch m.Kind {
	case ServerMessageOpenChannelIdsChanged:
		w.u64(uint64(len(m.ChannelIDs)))
		for _, id := range m.ChannelIDs {
			w.str(id)
		}
	case ServerMessageSender:
		w.u32(m.SenderID)
		encodeServerSender(w, m.SenderMsg)
	case ServerMessageReceiver:
		w.u32(m.ReceiverID)
		encodeServerReceiver(w, m.ReceiverMsg)
	}
	return w.buf
}

func encodeServerSender(w *writer, msg ServerSenderMessage) {
	switch v := msg.(type) {
	case OpenChannelSuccessMsg:
		w.u32(0)
	case ChannelAnswerMsg:
		w.u32(1)
		w.str(v.SDP)
	case IceCandidateMsg:
		w.u32(2)
		w.ice(v.Candidate)
	case AllIceCandidatesSentOutMsg:
		w.u32(3)
	case SenderErrorMsg:
		w.u32(4)
		w.u32(uint32(v.Err.Kind))
		if v.Err.Kind == ChannelIdAlreadyUsed {
			w.str(v.Err.ChannelID)
		}
	}
}

func encodeServerReceiver(w *writer, msg ServerReceiverMessage) {
	switch v := msg.(type) {
	case JoinChannelSuccessMsg:
		w.u32(0)
	case ChannelOfferMsg:
		w.u32(1)
		w.str(v.SDP)
	case IceCandidateMsg:
		w.u32(2)
		w.ice(v.Candidate)
	case AllIceCandidatesSentOutMsg:
		w.u32(3)
	case BinaryDataMsg:
		w.u32(4)
		w.bytes(v.Data)
	case ReceiverErrorMsg:
		w.u32(5)
		w.u32(uint32(v.Err.Kind))
		switch v.Err.Kind {
		case ChannelIsNotExist, ChannelIsAlreadyOccupied:
			w.str(v.Err.ChannelID)
		}
	}
}

// DecodeServer parses one WebSocket binary frame into a ServerMessage.
func DecodeServer(data []byte) (ServerMessage, error) {
	r := &reader{buf: data}
	kindRaw, err := r.u32()
	if err != nil {
		return ServerMessage{}, &DecodeError{"ServerMessage.Kind", err}
	}

	var m ServerMessage
	switch ServerMessageKind(kindRaw) {
	case ServerMessageOpenChannelIdsChanged:
		m.Kind = ServerMessageOpenChannelIdsChanged
		n, err := r.u64()
		if err != nil {
			return ServerMessage{}, &DecodeError{"OpenChannelIdsChanged.len", err}
		}
		if n > maxVarLen {
			return ServerMessage{}, &DecodeError{"OpenChannelIdsChanged.len", errors.New("too large")}
		}
		ids := make([]string, 0, n)
		for i := uint64(0); i < n; i++ {
			s, err := r.str()
			if err != nil {
				return ServerMessage{}, &DecodeError{"OpenChannelIdsChanged.item", err}
			}
			ids = append(ids, s)
		}
		m.ChannelIDs = ids
	case ServerMessageSender:
		m.Kind = ServerMessageSender
		id, err := r.u32()
		if err != nil {
			return ServerMessage{}, &DecodeError{"sender_id", err}
		}
		m.SenderID = id
		msg, err := decodeServerSender(r)
		if err != nil {
			return ServerMessage{}, err
		}
		m.SenderMsg = msg
	case ServerMessageReceiver:
		m.Kind = ServerMessageReceiver
		id, err := r.u32()
		if err != nil {
			return ServerMessage{}, &DecodeError{"receiver_id", err}
		}
		m.ReceiverID = id
		msg, err := decodeServerReceiver(r)
		if err != nil {
			return ServerMessage{}, err
		}
		m.ReceiverMsg = msg
	default:
		return ServerMessage{}, &DecodeError{"ServerMessage.Kind", errBadTag}
	}

	if !r.atEnd() {
		return ServerMessage{}, &DecodeError{"ServerMessage", errors.New("trailing bytes")}
	}
	return m, nil
}

func decodeServerSender(r *reader) (ServerSenderMessage, error) {
	tag, err := r.u32()
	if err != nil {
		return nil, &DecodeError{"ServerSenderMessage.tag", err}
	}
	switch tag {
	case 0:
		return OpenChannelSuccessMsg{}, nil
	case 1:
		sdp, err := r.str()
		if err != nil {
			return nil, &DecodeError{"ChannelAnswer.sdp", err}
		}
		return ChannelAnswerMsg{SDP: sdp}, nil
	case 2:
		c, err := r.ice()
		if err != nil {
			return nil, &DecodeError{"IceCandidate", err}
		}
		return IceCandidateMsg{Candidate: c}, nil
	case 3:
		return AllIceCandidatesSentOutMsg{}, nil
	case 4:
		kindRaw, err := r.u32()
		if err != nil {
			return nil, &DecodeError{"Error.kind", err}
		}
		kind := ServerSenderErrorKind(kindRaw)
		var channelID string
		if kind == ChannelIdAlreadyUsed {
			channelID, err = r.str()
			if err != nil {
				return nil, &DecodeError{"Error.channel_id", err}
			}
		}
		return SenderErrorMsg{Err: ServerSenderError{Kind: kind, ChannelID: channelID}}, nil
	default:
		return nil, &DecodeError{"ServerSenderMessage.tag", errBadTag}
	}
}

func decodeServerReceiver(r *reader) (ServerReceiverMessage, error) {
	tag, err := r.u32()
	if err != nil {
		return nil, &DecodeError{"ServerReceiverMessage.tag", err}
	}
	switch tag {
	case 0:
		return JoinChannelSuccessMsg{}, nil
	case 1:
		sdp, err := r.str()
		if err != nil {
			return nil, &DecodeError{"ChannelOffer.sdp", err}
		}
		return ChannelOfferMsg{SDP: sdp}, nil
	case 2:
		c, err := r.ice()
		if err != nil {
			return nil, &DecodeError{"IceCandidate", err}
		}
		return IceCandidateMsg{Candidate: c}, nil
	case 3:
		return AllIceCandidatesSentOutMsg{}, nil
	case 4:
		b, err := r.bytes()
		if err != nil {
			return nil, &DecodeError{"BinaryData.data", err}
		}
		return BinaryDataMsg{Data: b}, nil
	case 5:
		kindRaw, err := r.u32()
		if err != nil {
			return nil, &DecodeError{"Error.kind", err}
		}
		kind := ServerReceiverErrorKind(kindRaw)
		var channelID string
		switch kind {
		case ChannelIsNotExist, ChannelIsAlreadyOccupied:
			channelID, err = r.str()
			if err != nil {
				return nil, &DecodeError{"Error.channel_id", err}
			}
		}
		return ReceiverErrorMsg{Err: ServerReceiverError{Kind: kind, ChannelID: channelID}}, nil
	default:
		return nil, &DecodeError{"ServerReceiverMessage.tag", errBadTag}
	}
}
