// Package resource provides a named, reference-counted table for
// externally identified resources.
//
// Resources here are handles owned by some other system: a GPU texture or
// shader program, a file descriptor, a compiled WebAssembly module. Each
// carries a numeric ID assigned by that system and a Destroy method that
// releases it there. The Go garbage collector cannot see these objects, so
// their lifetime is managed with explicit counts.
//
// # Loading
//
// A Counter maps caller-chosen names to resources:
//
//	table := resource.NewCounter(func(name string) (*Texture, error) {
//	    return uploadTexture(name)
//	})
//	defer table.Close()
//
//	// Construct on first use, reference afterwards
//	h, err := table.Load("atlas")
//	defer h.Release()
//
//	// Lookup only; empty handle when absent
//	if g := table.Get("atlas"); g.Valid() {
//	    defer g.Release()
//	}
//
// # Counting
//
// References are counted per resource ID rather than per name. Every handle
// returned by Load, Get, Insert or Clone adds one reference to its ID;
// Release removes it, and the last release calls Destroy on the resource.
//
// # Unloading
//
// Unload forgets a name without destroying anything. The resource is
// flagged as pending and stays alive while handles to its ID remain:
//
//	h, _ := table.Load("atlas")
//	table.Unload("atlas")     // name gone, texture still alive
//	n, _ := table.Load("atlas") // a new texture with a new ID
//	h.Release()               // old texture destroyed here
//
// When the last reference to a resource is released while a name still
// points at it, the name is erased as well. The table never hands out a
// destroyed resource.
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("%s %s id=%d refs=%d", e.Type, e.Name, e.ID, e.Refs)
//	}))
//
// # Memory Management
//
// Handles are not finalized. The owner of a handle must call Release;
// a forgotten handle keeps its resource alive until Close, which destroys
// everything still live.
package resource
