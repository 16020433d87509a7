// Package arena implements a block allocator for byte and string data.
//
// An Arena owns fixed-size blocks for its whole lifetime and serves
// sub-allocations from them. Allocations never move. Freed spans are kept
// on a free list and handed out again first-fit:
//
//	a := arena.New(0) // 64 KiB blocks
//	defer a.Release()
//
//	b, _ := a.Allocate(64)
//	_ = a.Deallocate(b)
//	c, _ := a.Allocate(32) // reuses b's span
//
// A reused span is consumed whole, so a 32-byte request served from a
// 64-byte free span keeps all 64 bytes until it is freed. Spans are never
// split or merged; fragmentation accumulates until Reset.
//
// Arena is not safe for concurrent use. SafeArena wraps it with a mutex.
// Both satisfy extres.Allocator, which StringMap consumes for key storage.
package arena
