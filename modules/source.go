package modules

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wippyai/extres/errors"
)

// Source resolves a module name to its binary.
type Source interface {
	Read(name string) ([]byte, error)
}

// DefaultExt is the file extension DirSource appends when Ext is empty.
const DefaultExt = ".wasm"

// DirSource reads modules from files under Dir. The name "a/b" maps to
// Dir/a/b.wasm.
type DirSource struct {
	Dir string
	Ext string
}

// Read returns the bytes of Dir/name+Ext. Names that escape Dir are
// rejected; a missing file is a not found error.
func (d DirSource) Read(name string) ([]byte, error) {
	ext := d.Ext
	if ext == "" {
		ext = DefaultExt
	}
	rel := filepath.FromSlash(name) + ext
	if name == "" || !filepath.IsLocal(rel) {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Name(name).
			Detail("module name must be a relative path inside %s", d.Dir).
			Build()
	}

	data, err := os.ReadFile(filepath.Join(d.Dir, rel))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
				Name(name).
				Detail("no module file in %s", d.Dir).
				Cause(err).
				Build()
		}
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "read module file")
	}
	return data, nil
}

// MapSource serves modules from memory.
type MapSource map[string][]byte

// Read returns the bytes stored under name.
func (m MapSource) Read(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "module", name)
	}
	return data, nil
}
