// Package modules serves compiled WebAssembly modules through a named,
// reference-counted resource table.
//
// A compiled wazero module is an external resource in the same sense as a
// GPU texture: the Go garbage collector does not release the machine code
// behind it, and it must be closed explicitly. Library loads module binaries
// from a Source, compiles each name once, and hands out counted handles:
//
//	lib, err := modules.NewLibrary(ctx, modules.DirSource{Dir: "./wasm"})
//	if err != nil {
//	    return err
//	}
//	defer lib.Close()
//
//	h, err := lib.Load(ctx, "filters/blur")
//	if err != nil {
//	    return err
//	}
//	defer h.Release()
//	fmt.Println(h.Value().Exports())
//
// Every Program holds a shared reference to the wazero runtime that compiled
// it, so the runtime is closed only after the library and every
// outstanding program are gone.
package modules
