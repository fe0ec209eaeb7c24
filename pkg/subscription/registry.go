package subscription

import (
	"slices"
	"sync"
	"time"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// State of an entry.
type State uint8

const (
	StatePending State = iota
	StateActive
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateActive:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// Entry is one subscribed property.
type Entry struct {
	PropertyID  string
	State       State
	RequestedAt time.Time

	// LastValue and LastUpdate describe the most recent PROPERTY UPDATE.
	LastValue  wire.Value
	LastUpdate time.Time
	Updates    int
}

// Registry maps property ids to entries. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry), now: time.Now}
}

// AddPending records a subscribe request for id. It returns false when id
// is already pending or active.
func (r *Registry) AddPending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; ok {
		return false
	}
	r.entries[id] = &Entry{PropertyID: id, State: StatePending, RequestedAt: r.now()}
	return true
}

// Confirm applies a PROPERTY SUBSCRIBED acknowledgement. Success activates
// the entry; any other status removes it. It reports whether id is now
// active.
func (r *Registry) Confirm(id string, status wire.Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status != wire.StatusSuccess {
		delete(r.entries, id)
		return false
	}
	e, ok := r.entries[id]
	if !ok {
		// Acknowledged without a local request, e.g. sent before a reconnect.
		e = &Entry{PropertyID: id, RequestedAt: r.now()}
		r.entries[id] = e
	}
	e.State = StateActive
	return true
}

// Remove drops id and reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok
}

// Update records a PROPERTY UPDATE. It reports whether id is active; updates
// for other ids should not be delivered.
func (r *Registry) Update(id string, value wire.Value) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.State != StateActive {
		return false
	}
	e.LastValue = value
	e.LastUpdate = r.now()
	e.Updates++
	return true
}

// Lookup returns a copy of the entry for id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// IsActive reports whether id is subscribed and acknowledged.
func (r *Registry) IsActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	return ok && e.State == StateActive
}

// Active returns the sorted ids of all active entries.
func (r *Registry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id, e := range r.entries {
		if e.State == StateActive {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of entries in any state.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes every entry and returns how many there were.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.entries)
	clear(r.entries)
	return n
}
