package modules

import (
	"context"
	"slices"

	"github.com/cespare/xxhash"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/extres/shared"
)

// Program is a compiled module. Its ID is assigned by the Library that
// compiled it and is never reused within that library.
type Program struct {
	compiled wazero.CompiledModule
	runtime  *shared.Shared[wazero.Runtime]
	name     string
	digest   uint64
	size     int
	id       uint32
}

// ID returns the library-assigned identifier.
func (p *Program) ID() uint32 { return p.id }

// Name returns the name the program was first loaded under.
func (p *Program) Name() string { return p.name }

// Digest returns the xxhash of the module binary.
func (p *Program) Digest() uint64 { return p.digest }

// Size returns the length of the module binary in bytes.
func (p *Program) Size() int { return p.size }

// Compiled returns the underlying wazero module. It must not be closed by
// the caller.
func (p *Program) Compiled() wazero.CompiledModule { return p.compiled }

// Exports returns the exported function names in sorted order.
func (p *Program) Exports() []string {
	if p.compiled == nil {
		return nil
	}
	names := make([]string, 0, len(p.compiled.ExportedFunctions()))
	for name := range p.compiled.ExportedFunctions() {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Imports returns the imported functions as "module.name" in declaration
// order.
func (p *Program) Imports() []string {
	if p.compiled == nil {
		return nil
	}
	defs := p.compiled.ImportedFunctions()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		mod, name, _ := def.Import()
		names = append(names, mod+"."+name)
	}
	return names
}

// Destroy closes the compiled module and drops the program's reference to
// the runtime.
func (p *Program) Destroy() {
	if p.compiled == nil {
		return
	}
	if err := p.compiled.Close(context.Background()); err != nil {
		Logger().Warn("close compiled module",
			zap.String("name", p.name),
			zap.Uint32("id", p.id),
			zap.Error(err))
	}
	p.compiled = nil
	p.runtime.Release()
	Logger().Debug("program destroyed",
		zap.String("name", p.name),
		zap.Uint32("id", p.id))
}

func newProgram(ctx context.Context, rt *shared.Shared[wazero.Runtime], id uint32, name string, bin []byte) (*Program, error) {
	compiled, err := (*rt.Get()).CompileModule(ctx, bin)
	if err != nil {
		return nil, err
	}
	return &Program{
		compiled: compiled,
		runtime:  rt.Clone(),
		name:     name,
		digest:   xxhash.Sum64(bin),
		size:     len(bin),
		id:       id,
	}, nil
}
