package resource

import (
	"sync"
)

// LocalBackend is an in-memory per-ID reference store.
type LocalBackend struct {
	counts map[uint32]uint32
	mu     sync.RWMutex
	closed bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		counts: make(map[uint32]uint32, 64),
	}
}

// AddReference increments the count for id and returns the new count.
func (b *LocalBackend) AddReference(id uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}
	b.counts[id]++
	return b.counts[id]
}

// SubReference decrements the count for id and returns the remaining count.
func (b *LocalBackend) SubReference(id uint32) (uint32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.counts[id]
	if !ok || n == 0 {
		return 0, false
	}

	n--
	if n == 0 {
		delete(b.counts, id)
	} else {
		b.counts[id] = n
	}
	return n, true
}

// References returns the current count for id.
func (b *LocalBackend) References(id uint32) uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.counts[id]
}

// Len returns the number of IDs with outstanding references.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.counts)
}

// Each iterates over all IDs with outstanding references.
func (b *LocalBackend) Each(fn func(id uint32, refs uint32) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, n := range b.counts {
		if !fn(id, n) {
			break
		}
	}
}

// Close forgets every count. Later AddReference calls return 0.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.counts = nil
	return nil
}
