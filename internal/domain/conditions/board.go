package conditions

import "sync"

// Board holds the named boolean conditions shared between sequencers and the
// subsystems that flip them. Unknown names read as false.
type Board struct {
	mu      sync.RWMutex
	values  map[string]bool
	changed chan struct{}
}

func NewBoard() *Board {
	return &Board{
		values:  map[string]bool{},
		changed: make(chan struct{}),
	}
}

func (b *Board) Get(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.values[name]
}

func (b *Board) Lookup(name string) (bool, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[name]
	return v, ok
}

// All reports whether every named condition is true.
func (b *Board) All(names ...string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, n := range names {
		if !b.values[n] {
			return false
		}
	}
	return true
}

func (b *Board) Set(name string, value bool) {
	if name == "" {
		return
	}
	b.mu.Lock()
	prev, existed := b.values[name]
	b.values[name] = value
	if existed && prev == value {
		b.mu.Unlock()
		return
	}
	close(b.changed)
	b.changed = make(chan struct{})
	b.mu.Unlock()
}

// Changed returns a channel closed on the next value change.
func (b *Board) Changed() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.changed
}

func (b *Board) Snapshot() map[string]bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]bool, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}
