package channel

import (
	"testing"

	"github.com/kelvinyu/signalhub/internal/wire"
)

type fakeSink struct {
	sent []wire.ServerMessage
}

func (s *fakeSink) SendServer(msg wire.ServerMessage) { s.sent = append(s.sent, msg) }

func TestBindReceiverReplaysAccumulatedState(t *testing.T) {
	senderSink := &fakeSink{}
	ch := New("room", KindPeerToPeer, senderSink, 1)

	ch.SetOffer("offer-sdp")
	ch.AddIce(wire.ICECandidate{Candidate: "cand-1"})
	ch.AddIce(wire.ICECandidate{Candidate: "cand-2"})
	ch.MarkAllSent()

	receiverSink := &fakeSink{}
	r := NewReceiver(ch.Ref(), receiverSink, 2)

	if !ch.BindReceiver(r) {
		t.Fatal("BindReceiver returned false for an unoccupied PeerToPeer channel")
	}

	if len(receiverSink.sent) != 4 {
		t.Fatalf("expected 4 replayed frames (offer, 2 ICE, all-sent), got %d", len(receiverSink.sent))
	}
	if _, ok := receiverSink.sent[0].ReceiverMsg.(wire.ChannelOfferMsg); !ok {
		t.Fatalf("frame 0: expected ChannelOfferMsg, got %T", receiverSink.sent[0].ReceiverMsg)
	}
	if _, ok := receiverSink.sent[3].ReceiverMsg.(wire.AllIceCandidatesSentOutMsg); !ok {
		t.Fatalf("frame 3: expected AllIceCandidatesSentOutMsg, got %T", receiverSink.sent[3].ReceiverMsg)
	}
}

func TestBindReceiverRejectsSecondOccupant(t *testing.T) {
	ch := New("room", KindPeerToPeer, &fakeSink{}, 1)

	first := NewReceiver(ch.Ref(), &fakeSink{}, 2)
	if !ch.BindReceiver(first) {
		t.Fatal("first bind should succeed")
	}

	second := NewReceiver(ch.Ref(), &fakeSink{}, 3)
	if ch.BindReceiver(second) {
		t.Fatal("second bind should fail while the channel is occupied")
	}
}

func TestUnbindReceiverFreesChannel(t *testing.T) {
	ch := New("room", KindPeerToPeer, &fakeSink{}, 1)
	r := NewReceiver(ch.Ref(), &fakeSink{}, 2)

	ch.BindReceiver(r)
	if !ch.Occupied() {
		t.Fatal("channel should be occupied after bind")
	}

	ch.UnbindReceiver(r)
	if ch.Occupied() {
		t.Fatal("channel should be free after unbind")
	}
	if !ch.Advertiseable() {
		t.Fatal("channel should be advertiseable after unbind")
	}
}

func TestKillingReceiverFreesChannelOnNextOccupiedCheck(t *testing.T) {
	ch := New("room", KindPeerToPeer, &fakeSink{}, 1)
	r := NewReceiver(ch.Ref(), &fakeSink{}, 2)
	ch.BindReceiver(r)

	r.Kill() // simulates the receiver's owning connection going away without calling UnbindReceiver

	if ch.Occupied() {
		t.Fatal("a channel bound to a killed receiver must report unoccupied")
	}
}

func TestForwardingAfterBindGoesToReceiver(t *testing.T) {
	ch := New("room", KindPeerToPeer, &fakeSink{}, 1)
	receiverSink := &fakeSink{}
	r := NewReceiver(ch.Ref(), receiverSink, 2)
	ch.BindReceiver(r)

	ch.ForwardBinaryData([]byte("payload"))

	if len(receiverSink.sent) != 1 {
		t.Fatalf("expected 1 forwarded frame, got %d", len(receiverSink.sent))
	}
	data, ok := receiverSink.sent[0].ReceiverMsg.(wire.BinaryDataMsg)
	if !ok {
		t.Fatalf("expected BinaryDataMsg, got %T", receiverSink.sent[0].ReceiverMsg)
	}
	if string(data.Data) != "payload" {
		t.Fatalf("got payload %q", data.Data)
	}
}

func TestForwardToSenderRoutesThroughChannel(t *testing.T) {
	senderSink := &fakeSink{}
	ch := New("room", KindPeerToPeer, senderSink, 77)
	r := NewReceiver(ch.Ref(), &fakeSink{}, 2)

	r.ForwardToSender(wire.ChannelAnswerMsg{SDP: "answer"})

	if len(senderSink.sent) != 1 {
		t.Fatalf("expected 1 frame sent to sender, got %d", len(senderSink.sent))
	}
	if senderSink.sent[0].SenderID != 77 {
		t.Fatalf("expected SenderID 77, got %d", senderSink.sent[0].SenderID)
	}
}

func TestForwardToSenderNoopAfterChannelKilled(t *testing.T) {
	senderSink := &fakeSink{}
	ch := New("room", KindPeerToPeer, senderSink, 1)
	r := NewReceiver(ch.Ref(), &fakeSink{}, 2)

	ch.Kill()
	r.ForwardToSender(wire.ChannelAnswerMsg{SDP: "answer"})

	if len(senderSink.sent) != 0 {
		t.Fatalf("expected no frames once the channel is dead, got %d", len(senderSink.sent))
	}
}

func TestClientServerChannelNeverAdvertisesOccupied(t *testing.T) {
	ch := New("room", KindClientServer, &fakeSink{}, 1)
	if !ch.Advertiseable() {
		t.Fatal("ClientServer channels are always advertiseable")
	}
	if ch.BindReceiver(NewReceiver(ch.Ref(), &fakeSink{}, 2)) {
		t.Fatal("BindReceiver must refuse a non-PeerToPeer channel")
	}
}
