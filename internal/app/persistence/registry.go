package persistence

import (
	"sync"

	"savekeep/internal/app/ports"
)

// Registry is the live set of participants. Entries are listed in
// registration order.
type Registry struct {
	mu      sync.Mutex
	nextID  uint64
	entries []registryEntry
}

type registryEntry struct {
	id uint64
	p  ports.Participant
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds p and returns a func that removes it again. Calling the
// returned func more than once is harmless.
func (r *Registry) Register(p ports.Participant) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, registryEntry{id: id, p: p})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *Registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *Registry) Participants() []ports.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.Participant, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.p)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
