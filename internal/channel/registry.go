package channel

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the sole authority mapping ssrc -> *Channel. It is a
// read-mostly structure: Lookup takes a read lock, Create/Remove take a
// write lock.
type Registry struct {
	mu       sync.RWMutex
	channels map[uint32]*Channel
	maxSlots int
}

// NewRegistry builds an empty registry. maxSlots <= 0 means unbounded.
func NewRegistry(maxSlots int) *Registry {
	return &Registry{channels: make(map[uint32]*Channel), maxSlots: maxSlots}
}

// Lookup returns the channel for ssrc, or nil if none is registered.
func (r *Registry) Lookup(ssrc uint32) *Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channels[ssrc]
}

// Create registers a new in-use channel for ssrc. Construction and
// insertion happen under the same write lock: a second command for the
// same not-yet-created ssrc serializes behind the first and finds the
// channel already present.
func (r *Registry) Create(ssrc uint32) (*Channel, error) {
	if ssrc == ReservedSSRC || ssrc == BroadcastSSRC {
		return nil, fmt.Errorf("channel: ssrc %#x is reserved", ssrc)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.channels[ssrc]; ok {
		return c, nil
	}
	if r.maxSlots > 0 && len(r.channels) >= r.maxSlots {
		return nil, fmt.Errorf("channel: no free ssrc slots (limit %d)", r.maxSlots)
	}
	c := NewChannel(ssrc)
	c.InUse = true
	r.channels[ssrc] = c
	return c, nil
}

// Remove tears down the ssrc->channel mapping. The caller is responsible
// for having already signaled and joined the worker.
func (r *Registry) Remove(ssrc uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, ssrc)
}

// Each calls fn for every registered channel in ascending ssrc order. fn
// must not call back into the registry (it already holds the read lock).
// The ordering is load-bearing for callers like the broadcast staggering
// rule, which assigns slots by iteration position and must do so
// reproducibly rather than at Go's randomized map order.
func (r *Registry) Each(fn func(*Channel)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ssrcs := make([]uint32, 0, len(r.channels))
	for ssrc := range r.channels {
		ssrcs = append(ssrcs, ssrc)
	}
	sort.Slice(ssrcs, func(i, j int) bool { return ssrcs[i] < ssrcs[j] })
	for _, ssrc := range ssrcs {
		fn(r.channels[ssrc])
	}
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
