// Package extres manages the lifetime of resources the Go garbage collector
// cannot see: GPU textures and shader programs, open file handles, compiled
// WebAssembly modules.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	extres/              Root package with the Allocator interface
//	├── shared/          Shared and weak reference-counted cells
//	├── resource/        Named table counting references per resource ID
//	├── arena/           Block allocator with a first-fit free list
//	├── fixed/           Fixed-capacity array with explicit destruction
//	├── modules/         Compiled wazero modules served by a resource table
//	├── config/          YAML configuration and logger construction
//	└── errors/          Structured error types
//
// # Quick Start
//
// Share a value with a destructor:
//
//	tex := shared.New(upload(img), func(t *Texture) { t.Free() })
//	defer tex.Release()
//
// Look resources up by name and count references by ID:
//
//	table := resource.NewCounter(loadTexture)
//	defer table.Close()
//
//	h, err := table.Load("atlas")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Release()
//
// # Thread Safety
//
// Shared counts are atomic and resource.Counter is guarded by a mutex.
// arena.Arena and fixed.Array are NOT thread-safe; use arena.SafeArena or
// synchronize access.
//
// # Destruction
//
// Nothing here is finalized. Every handle has an explicit Release, and the
// destructor of a value runs exactly once, from whichever Release drops the
// last owning reference.
package extres
