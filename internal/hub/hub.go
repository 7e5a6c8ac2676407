// Package hub implements the process-wide WebSocket listener: accepting
// connections, assigning each a connection id, running its session
// loop on its own goroutine, and broadcasting the open-channel set
// whenever it changes (spec.md §3 Hub entity, §4.5).
package hub

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/kelvinyu/signalhub/internal/registry"
	"github.com/kelvinyu/signalhub/internal/session"
	"github.com/kelvinyu/signalhub/internal/util"
	"github.com/kelvinyu/signalhub/internal/wire"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub owns the registry of open channels and every live connection.
type Hub struct {
	reg *registry.Registry

	nextID atomic.Uint32

	mu    sync.Mutex
	conns map[uint32]*session.Connection

	listener net.Listener
}

// New returns an idle Hub.
func New() *Hub {
	return &Hub{
		reg:   registry.New(),
		conns: make(map[uint32]*session.Connection),
	}
}

// ListenAndServe binds addr and serves the signaling WebSocket endpoint
// until ctx is cancelled. A bind failure is returned to the caller
// (spec.md §7 category 4); every other failure is contained within a
// single connection's worker.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	h.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	srv := &http.Server{Handler: mux}

	util.LogSuccess("listening for signaling connections on %s", listener.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()

	select {
	case <-ctx.Done():
		srv.Close()
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.LogError("websocket upgrade failed: %v", err)
		return
	}

	id := h.nextID.Add(1)
	conn := session.New(id, ws, h.reg, h)

	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()

	util.LogDebug("connection %d established from %s", id, r.RemoteAddr)

	// A newcomer joining a quiescent system has no mutation to ride in
	// on, so it gets its own catch-up broadcast here (spec.md §8
	// property 6; original_source/server/src/socket.rs's Socket::new
	// calls update_open_channel_ids right after registering).
	h.BroadcastOpenChannels()

	conn.Run()
}

// Forget drops id from the live connection set (spec.md §4.5). Called
// by a Connection as the last step of its own teardown.
func (h *Hub) Forget(id uint32) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// BroadcastOpenChannels recomputes the advertiseable channel snapshot
// and pushes it to every live connection (spec.md §4.3). Called after
// any operation that can change channel existence or occupancy.
func (h *Hub) BroadcastOpenChannels() {
	ids := h.reg.SnapshotOpenChannels()

	h.mu.Lock()
	targets := make([]*session.Connection, 0, len(h.conns))
	for _, c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	msg := wire.ServerMessage{
		Kind:       wire.ServerMessageOpenChannelIdsChanged,
		ChannelIDs: ids,
	}
	for _, c := range targets {
		c.SendServer(msg)
	}
}

// ConnectionCount reports the number of live connections, for the stats
// reporter.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// OpenChannelCount reports the number of currently advertiseable
// channels, for the stats reporter.
func (h *Hub) OpenChannelCount() int {
	return len(h.reg.SnapshotOpenChannels())
}
