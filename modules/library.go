package modules

import (
	"context"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/extres/errors"
	"github.com/wippyai/extres/resource"
	"github.com/wippyai/extres/shared"
)

// Library compiles modules on first use and shares them by name.
// Library is safe for concurrent use.
type Library struct {
	table   *resource.Counter[*Program]
	runtime *shared.Shared[wazero.Runtime]
	source  Source
	nextID  atomic.Uint32
}

// Option configures a Library.
type Option func(*options)

type options struct {
	runtime          *shared.Shared[wazero.Runtime]
	observers        []resource.Observer
	memoryLimitPages uint32
}

// WithRuntime compiles with an existing shared runtime instead of creating
// one. The library takes its own reference; the caller keeps theirs.
func WithRuntime(rt *shared.Shared[wazero.Runtime]) Option {
	return func(o *options) { o.runtime = rt }
}

// WithMemoryLimitPages caps memory per instance in 64 KiB pages for a
// runtime created by the library. 0 keeps the wazero default.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *options) { o.memoryLimitPages = pages }
}

// WithObserver subscribes o to the library's table events.
func WithObserver(o resource.Observer) Option {
	return func(opts *options) { opts.observers = append(opts.observers, o) }
}

// NewRuntime creates a shared wazero runtime that is closed when its last
// reference is released.
func NewRuntime(ctx context.Context, memoryLimitPages uint32) *shared.Shared[wazero.Runtime] {
	cfg := wazero.NewRuntimeConfig()
	if memoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(memoryLimitPages)
	}
	return shared.New(wazero.NewRuntimeWithConfig(ctx, cfg), closeRuntime)
}

func closeRuntime(rt *wazero.Runtime) {
	if err := (*rt).Close(context.Background()); err != nil {
		Logger().Warn("close runtime", zap.Error(err))
		return
	}
	Logger().Debug("runtime closed")
}

// NewLibrary creates a library reading binaries from src.
func NewLibrary(ctx context.Context, src Source, opts ...Option) (*Library, error) {
	if src == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "library requires a module source")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var rt *shared.Shared[wazero.Runtime]
	if o.runtime != nil {
		rt = o.runtime.Clone()
		if !rt.Valid() {
			return nil, errors.Closed(errors.PhaseLoad, "runtime")
		}
	} else {
		rt = NewRuntime(ctx, o.memoryLimitPages)
	}

	tableOpts := make([]resource.Option, 0, len(o.observers))
	for _, obs := range o.observers {
		tableOpts = append(tableOpts, resource.WithObserver(obs))
	}

	return &Library{
		table:   resource.NewCounter[*Program](nil, tableOpts...),
		runtime: rt,
		source:  src,
	}, nil
}

// Load returns a handle to the program registered under name, reading and
// compiling it on first use. Concurrent loads of one name compile once.
func (l *Library) Load(ctx context.Context, name string) (*resource.Handle[*Program], error) {
	return l.table.LoadFunc(name, func(name string) (*Program, error) {
		bin, err := l.source.Read(name)
		if err != nil {
			return nil, err
		}
		p, err := newProgram(ctx, l.runtime, l.nextID.Add(1), name, bin)
		if err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Name(name).
				Detail("compile %d bytes", len(bin)).
				Cause(err).
				Build()
		}
		Logger().Debug("program compiled",
			zap.String("name", name),
			zap.Uint32("id", p.id),
			zap.Int("size", p.size))
		return p, nil
	})
}

// Get returns a handle to an already loaded program, or an empty handle.
func (l *Library) Get(name string) *resource.Handle[*Program] {
	return l.table.Get(name)
}

// Unload forgets name. The program is closed once its handles are released.
func (l *Library) Unload(name string) bool {
	return l.table.Unload(name)
}

// Names returns the loaded names in sorted order.
func (l *Library) Names() []string {
	return l.table.Names()
}

// Snapshot describes every live program.
func (l *Library) Snapshot() []resource.Info {
	return l.table.Snapshot()
}

// Pending returns the number of unloaded programs still held by handles.
func (l *Library) Pending() int {
	return l.table.Pending()
}

// Subscribe adds an observer for program lifecycle events.
func (l *Library) Subscribe(o resource.Observer) {
	l.table.Subscribe(o)
}

// Runtime returns a weak reference to the compiling runtime. It expires
// once the library is closed and every program is destroyed.
func (l *Library) Runtime() *shared.Weak[wazero.Runtime] {
	return l.runtime.Downgrade()
}

// Close destroys every program and drops the library's runtime reference.
func (l *Library) Close() error {
	err := l.table.Close()
	l.runtime.Release()
	return err
}
