package arena

import "sync"

// SafeArena is a mutex-protected wrapper around Arena for concurrent access.
// The bytes it hands out are not guarded; each goroutine owns what it was
// granted.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafe creates a thread-safe arena with the given block size.
// If blockSize <= 0, DefaultBlockSize is used.
func NewSafe(blockSize int) *SafeArena {
	return &SafeArena{a: New(blockSize)}
}

// Allocate thread-safely allocates n bytes.
func (s *SafeArena) Allocate(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Allocate(n)
}

// Deallocate thread-safely returns b to the free list.
func (s *SafeArena) Deallocate(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Deallocate(b)
}

// Equal reports whether other is this very arena.
func (s *SafeArena) Equal(other *SafeArena) bool {
	return s == other
}

// Reset thread-safely forgets every allocation.
func (s *SafeArena) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Reset()
}

// Release thread-safely drops all blocks.
func (s *SafeArena) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Release()
}

// BlockSize returns the block size.
func (s *SafeArena) BlockSize() int {
	return s.a.BlockSize()
}
