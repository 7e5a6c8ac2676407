package registry

import (
	"testing"

	"github.com/kelvinyu/signalhub/internal/channel"
	"github.com/kelvinyu/signalhub/internal/wire"
)

type fakeSink struct{ sent []wire.ServerMessage }

func (s *fakeSink) SendServer(msg wire.ServerMessage) { s.sent = append(s.sent, msg) }

func TestInsertRejectsDuplicateLiveID(t *testing.T) {
	r := New()
	a := channel.New("room", channel.KindPeerToPeer, &fakeSink{}, 1)
	b := channel.New("room", channel.KindPeerToPeer, &fakeSink{}, 2)

	if !r.Insert(a) {
		t.Fatal("first insert should succeed")
	}
	if r.Insert(b) {
		t.Fatal("second insert under the same live id should fail")
	}
}

func TestInsertReplacesDeadEntry(t *testing.T) {
	r := New()
	a := channel.New("room", channel.KindPeerToPeer, &fakeSink{}, 1)
	r.Insert(a)
	a.Kill()

	b := channel.New("room", channel.KindPeerToPeer, &fakeSink{}, 2)
	if !r.Insert(b) {
		t.Fatal("insert should succeed once the existing entry is dead")
	}

	got, ok := r.Lookup("room")
	if !ok || got != b {
		t.Fatalf("expected lookup to return the new channel")
	}
}

func TestLookupPurgesDeadEntry(t *testing.T) {
	r := New()
	a := channel.New("room", channel.KindPeerToPeer, &fakeSink{}, 1)
	r.Insert(a)
	a.Kill()

	if _, ok := r.Lookup("room"); ok {
		t.Fatal("lookup should report a dead channel as absent")
	}

	r.mu.RLock()
	_, stillPresent := r.channels["room"]
	r.mu.RUnlock()
	if stillPresent {
		t.Fatal("lookup should have purged the dead entry")
	}
}

func TestSnapshotOpenChannelsExcludesOccupied(t *testing.T) {
	r := New()
	a := channel.New("a", channel.KindPeerToPeer, &fakeSink{}, 1)
	b := channel.New("b", channel.KindPeerToPeer, &fakeSink{}, 2)
	r.Insert(a)
	r.Insert(b)

	rcv := channel.NewReceiver(b.Ref(), &fakeSink{}, 10)
	b.BindReceiver(rcv)

	open := r.SnapshotOpenChannels()
	if len(open) != 1 || open[0] != "a" {
		t.Fatalf("expected only %q to be advertised, got %v", "a", open)
	}
}

func TestRemoveDropsRegardlessOfLiveness(t *testing.T) {
	r := New()
	a := channel.New("a", channel.KindPeerToPeer, &fakeSink{}, 1)
	r.Insert(a)

	r.Remove([]string{"a"})

	if _, ok := r.Lookup("a"); ok {
		t.Fatal("expected channel to be gone after Remove")
	}
}
