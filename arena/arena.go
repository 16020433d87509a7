package arena

import (
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/extres/errors"
)

// DefaultBlockSize is the default block size for new arenas (64 KiB).
const DefaultBlockSize = 1 << 16

// align is the alignment of bump allocations within a block.
const align = 8

// block is one fixed-size backing buffer. Blocks are never moved or
// resized, so granted slices stay valid until Reset or Release.
type block struct {
	buf    []byte
	offset int // bump offset within buf
}

// span describes a granted or freed region of a block.
type span struct {
	block int
	off   int
	size  int
}

// Arena is a block allocator for variable-length byte and string data.
// Freed spans go onto a free list and are reused first-fit without
// splitting or coalescing. Not goroutine-safe; use SafeArena for
// concurrent access.
type Arena struct {
	blocks    []block
	free      []span
	granted   map[*byte]span
	cur       int // bump target block
	blockSize int
	released  bool
}

// New creates an arena with the given block size.
// If blockSize <= 0, DefaultBlockSize is used. No block is allocated until
// the first Allocate.
func New(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Arena{
		blockSize: blockSize,
		granted:   make(map[*byte]span),
	}
}

// BlockSize returns the size of every block, which is also the largest
// single allocation.
func (a *Arena) BlockSize() int {
	return a.blockSize
}

// Allocate returns n bytes of zeroed arena memory. The first free span of
// at least n bytes is reused whole; otherwise the bytes are carved from the
// current block, and a new block is appended when the blocks are full.
//
// Returns nil for n <= 0. Requests larger than the block size fail.
func (a *Arena) Allocate(n int) ([]byte, error) {
	if a.released {
		return nil, errors.Closed(errors.PhaseAlloc, "arena")
	}
	if n <= 0 {
		return nil, nil
	}
	if n > a.blockSize {
		return nil, errors.AllocationFailed(errors.PhaseAlloc, n, a.blockSize)
	}

	for i, s := range a.free {
		if s.size >= n {
			a.free = slices.Delete(a.free, i, i+1)
			return a.grant(s, n), nil
		}
	}

	for ; a.cur < len(a.blocks); a.cur++ {
		b := &a.blocks[a.cur]
		off := alignUp(b.offset)
		if off+n <= len(b.buf) {
			b.offset = off + n
			return a.grant(span{block: a.cur, off: off, size: n}, n), nil
		}
	}

	a.grow()
	a.cur = len(a.blocks) - 1
	a.blocks[a.cur].offset = n
	return a.grant(span{block: a.cur, off: 0, size: n}, n), nil
}

// Deallocate returns b to the free list. b must be a slice previously
// returned by Allocate on this arena; the whole granted span is zeroed and
// becomes reusable. Adjacent free spans are not merged.
func (a *Arena) Deallocate(b []byte) error {
	if a.released {
		return errors.Closed(errors.PhaseAlloc, "arena")
	}
	if len(b) == 0 {
		return errors.InvalidInput(errors.PhaseAlloc, "deallocate of empty slice")
	}
	s, ok := a.granted[&b[0]]
	if !ok {
		return errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Detail("slice of %d bytes was not allocated by this arena or is already free", len(b)).
			Build()
	}
	delete(a.granted, &b[0])
	clear(a.blocks[s.block].buf[s.off : s.off+s.size])
	a.free = append(a.free, s)
	return nil
}

// Equal reports whether other is this very arena. Arenas are never
// structurally equal.
func (a *Arena) Equal(other *Arena) bool {
	return a == other
}

// Reset forgets every allocation but keeps the blocks for reuse.
// Slices granted before Reset must not be used afterwards.
func (a *Arena) Reset() error {
	if a.released {
		return errors.Closed(errors.PhaseAlloc, "arena")
	}
	for i := range a.blocks {
		clear(a.blocks[i].buf[:a.blocks[i].offset])
		a.blocks[i].offset = 0
	}
	a.cur = 0
	a.free = a.free[:0]
	clear(a.granted)
	return nil
}

// Release drops all blocks. Any later Allocate, Deallocate or Reset fails
// with a closed error.
func (a *Arena) Release() {
	if a.released {
		return
	}
	Logger().Debug("arena released",
		zap.Int("blocks", len(a.blocks)),
		zap.Int("in_use", a.inUse()))
	a.blocks = nil
	a.free = nil
	a.granted = nil
	a.released = true
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool {
	return a.released
}

// grant records s as handed out and returns its first n bytes.
func (a *Arena) grant(s span, n int) []byte {
	buf := a.blocks[s.block].buf[s.off : s.off+n : s.off+n]
	a.granted[&buf[0]] = s
	return buf
}

// grow appends a new block.
func (a *Arena) grow() {
	a.blocks = append(a.blocks, block{buf: make([]byte, a.blockSize)})
	Logger().Debug("arena block added",
		zap.Int("blocks", len(a.blocks)),
		zap.Int("block_size", a.blockSize))
}

func (a *Arena) inUse() int {
	sum := 0
	for _, s := range a.granted {
		sum += s.size
	}
	return sum
}

// alignUp rounds off up to the allocation alignment.
func alignUp(off int) int {
	return (off + align - 1) &^ (align - 1)
}
