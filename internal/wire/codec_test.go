package wire

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }
func u16Ptr(v uint16) *uint16 { return &v }

func TestClientMessageRoundTrip(t *testing.T) {
	cases := []ClientMessage{
		{
			Kind:      ClientMessageSender,
			SenderID:  1,
			SenderMsg: OpenChannelMsg{ChannelID: "abc", Mode: PeerToPeer},
		},
		{
			Kind:      ClientMessageSender,
			SenderID:  2,
			SenderMsg: CloseChannelMsg{},
		},
		{
			Kind:      ClientMessageSender,
			SenderID:  3,
			SenderMsg: SendOfferMsg{SDP: "v=0..."},
		},
		{
			Kind:     ClientMessageSender,
			SenderID: 4,
			SenderMsg: IceCandidateMsg{Candidate: ICECandidate{
				Candidate:     "candidate:1 1 UDP ...",
				SDPMid:        strPtr("0"),
				SDPMLineIndex: u16Ptr(0),
			}},
		},
		{
			Kind:     ClientMessageSender,
			SenderID: 5,
			SenderMsg: IceCandidateMsg{Candidate: ICECandidate{
				Candidate: "candidate:2",
			}},
		},
		{
			Kind:      ClientMessageSender,
			SenderID:  6,
			SenderMsg: AllIceCandidatesSentMsg{},
		},
		{
			Kind:      ClientMessageSender,
			SenderID:  7,
			SenderMsg: SendBinaryDataMsg{Data: []byte{1, 2, 3, 4}},
		},
		{
			Kind:      ClientMessageSender,
			SenderID:  8,
			SenderMsg: SendBinaryDataMsg{Data: []byte{}},
		},
		{
			Kind:        ClientMessageReceiver,
			ReceiverID:  1,
			ReceiverMsg: JoinChannelMsg{ChannelID: "abc"},
		},
		{
			Kind:        ClientMessageReceiver,
			ReceiverID:  2,
			ReceiverMsg: ExitChannelMsg{},
		},
		{
			Kind:        ClientMessageReceiver,
			ReceiverID:  3,
			ReceiverMsg: SendAnswerMsg{SDP: "v=0..."},
		},
		{
			Kind:        ClientMessageReceiver,
			ReceiverID:  4,
			ReceiverMsg: AllIceCandidatesSentMsg{},
		},
	}

	for _, want := range cases {
		data := EncodeClient(want)
		got, err := DecodeClient(data)
		if err != nil {
			t.Fatalf("DecodeClient(%+v): %v", want, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestServerMessageRoundTrip(t *testing.T) {
	cases := []ServerMessage{
		{
			Kind:       ServerMessageOpenChannelIdsChanged,
			ChannelIDs: []string{"a", "b", "c"},
		},
		{
			Kind:       ServerMessageOpenChannelIdsChanged,
			ChannelIDs: []string{},
		},
		{
			Kind:      ServerMessageSender,
			SenderID:  1,
			SenderMsg: OpenChannelSuccessMsg{},
		},
		{
			Kind:      ServerMessageSender,
			SenderID:  2,
			SenderMsg: ChannelAnswerMsg{SDP: "v=0..."},
		},
		{
			Kind:      ServerMessageSender,
			SenderID:  3,
			SenderMsg: AllIceCandidatesSentOutMsg{},
		},
		{
			Kind:      ServerMessageSender,
			SenderID:  4,
			SenderMsg: SenderErrorMsg{Err: ServerSenderError{Kind: SenderIdAlreadyUsed}},
		},
		{
			Kind:      ServerMessageSender,
			SenderID:  5,
			SenderMsg: SenderErrorMsg{Err: ServerSenderError{Kind: ChannelIdAlreadyUsed, ChannelID: "abc"}},
		},
		{
			Kind:        ServerMessageReceiver,
			ReceiverID:  1,
			ReceiverMsg: JoinChannelSuccessMsg{},
		},
		{
			Kind:        ServerMessageReceiver,
			ReceiverID:  2,
			ReceiverMsg: ChannelOfferMsg{SDP: "v=0..."},
		},
		{
			Kind:        ServerMessageReceiver,
			ReceiverID:  3,
			ReceiverMsg: BinaryDataMsg{Data: []byte{9, 8, 7}},
		},
		{
			Kind:       ServerMessageReceiver,
			ReceiverID: 4,
			ReceiverMsg: ReceiverErrorMsg{Err: ServerReceiverError{
				Kind:      ChannelIsAlreadyOccupied,
				ChannelID: "xyz",
			}},
		},
		{
			Kind:        ServerMessageReceiver,
			ReceiverID:  5,
			ReceiverMsg: ReceiverErrorMsg{Err: ServerReceiverError{Kind: ReceiverIdNotExist}},
		},
	}

	for _, want := range cases {
		data := EncodeServer(want)
		got, err := DecodeServer(data)
		if err != nil {
			t.Fatalf("DecodeServer(%+v): %v", want, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestDecodeClientMalformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":             {},
		"truncated kind":    {0x01, 0x00},
		"bad envelope kind": {0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0},
		"trailing bytes": func() []byte {
			data := EncodeClient(ClientMessage{Kind: ClientMessageSender, SenderID: 1, SenderMsg: CloseChannelMsg{}})
			return append(data, 0xaa)
		}(),
	}
	for name, data := range cases {
		if _, err := DecodeClient(data); err == nil {
			t.Errorf("%s: expected decode error, got nil", name)
		}
	}
}

func TestDecodeServerMalformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":          {},
		"bad union tag":  {1, 0, 0, 0, 1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff},
		"huge string len": func() []byte {
			w := &writer{}
			w.u32(uint32(ServerMessageSender))
			w.u32(1)
			w.u32(1) // ChannelAnswerMsg tag
			w.u64(1 << 40)
			return w.buf
		}(),
	}
	for name, data := range cases {
		if _, err := DecodeServer(data); err == nil {
			t.Errorf("%s: expected decode error, got nil", name)
		}
	}
}
