// Package registry implements the process-wide channel directory
// (spec.md §3, §4.3): a name -> Channel map holding its entries weakly,
// so that a channel whose owning sender session has gone away is
// treated as absent without requiring an explicit remove from every
// caller.
package registry

import (
	"sync"

	"github.com/kelvinyu/signalhub/internal/channel"
	"github.com/kelvinyu/signalhub/internal/weakref"
)

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]weakref.Ref[channel.Channel]
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{channels: make(map[string]weakref.Ref[channel.Channel])}
}

// Insert adds ch under its ID. Returns false without modifying state
// if the id is already present with a live entry (spec.md §4.3,
// testable property 1: mutual exclusion of channel ids). A dead entry
// under the same id is silently replaced.
func (r *Registry) Insert(ch *channel.Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.channels[ch.ID]; ok {
		if _, alive := existing.Upgrade(); alive {
			return false
		}
	}
	r.channels[ch.ID] = ch.Ref()
	return true
}

// Lookup returns the live channel named id, or (nil, false) if absent
// or dead. A dead entry is purged opportunistically (spec.md §4.3).
func (r *Registry) Lookup(id string) (*channel.Channel, bool) {
	r.mu.RLock()
	ref, ok := r.channels[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	ch, alive := ref.Upgrade()
	if !alive {
		r.mu.Lock()
		if cur, ok := r.channels[id]; ok {
			if _, stillAlive := cur.Upgrade(); !stillAlive {
				delete(r.channels, id)
			}
		}
		r.mu.Unlock()
		return nil, false
	}
	return ch, true
}

// Remove deletes every id in ids, regardless of liveness. Used on
// session teardown to drop every channel the session owned (spec.md
// §4.5).
func (r *Registry) Remove(ids []string) {
	if len(ids) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.channels, id)
	}
}

// SnapshotOpenChannels returns the ids of every live, advertiseable
// channel (spec.md §4.3). Dead entries encountered along the way are
// purged.
func (r *Registry) SnapshotOpenChannels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	open := make([]string, 0, len(r.channels))
	for id, ref := range r.channels {
		ch, alive := ref.Upgrade()
		if !alive {
			delete(r.channels, id)
			continue
		}
		if ch.Advertiseable() {
			open = append(open, id)
		}
	}
	return open
}
