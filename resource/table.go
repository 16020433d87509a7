package resource

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/extres/errors"
)

// Counted is the constraint for table values: a Resource that can be
// compared for equality.
type Counted interface {
	Resource
	comparable
}

// entry is one live resource. Several names may alias the same entry when
// their resources report the same ID; the later value is then dropped
// without Destroy, since it names the same external object. An unloaded
// (pending) entry is never aliased.
type entry[T Resource] struct {
	value   T
	names   []string
	pending bool
}

// inflight marks a name whose factory is running. Waiters block on done
// and then read err.
type inflight struct {
	done chan struct{}
	err  error
}

// Counter is a name-keyed table of externally identified resources.
// References are counted per resource ID, not per name: Unload forgets a
// name but the resource lives until the last Handle to its ID is released.
//
// Counter is safe for concurrent use.
type Counter[T Counted] struct {
	factory   Factory[T]
	backend   Backend
	names     map[string]*entry[T]
	live      map[uint32]*entry[T]
	loading   map[string]*inflight
	observers []Observer
	mu        sync.Mutex
	obsMu     sync.RWMutex
	closed    bool
}

// Option configures a Counter.
type Option func(*options)

type options struct {
	backend   Backend
	observers []Observer
}

// WithBackend replaces the default LocalBackend.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithObserver subscribes o before the first operation.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observers = append(opts.observers, o) }
}

// NewCounter creates a table that builds missing resources with factory.
// factory may be nil when resources only arrive through Insert or LoadFunc.
func NewCounter[T Counted](factory Factory[T], opts ...Option) *Counter[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.backend == nil {
		o.backend = NewLocalBackend()
	}
	return &Counter[T]{
		factory:   factory,
		backend:   o.backend,
		names:     make(map[string]*entry[T]),
		live:      make(map[uint32]*entry[T]),
		loading:   make(map[string]*inflight),
		observers: o.observers,
	}
}

// Load returns a handle to the resource registered under name, constructing
// it with the table's factory when the name is absent.
func (c *Counter[T]) Load(name string) (*Handle[T], error) {
	if c.factory == nil {
		return nil, errors.New(errors.PhaseTable, errors.KindInvalidInput).
			Name(name).
			Detail("table has no factory").
			Build()
	}
	return c.LoadFunc(name, c.factory)
}

// LoadFunc is Load with a one-off factory. The factory runs outside the
// table lock; concurrent loads of the same name wait for the first and
// construct it once.
//
// A factory that returns an ID still held by an unloaded resource fails the
// load with an invalid data error and the new value is destroyed.
func (c *Counter[T]) LoadFunc(name string, factory Factory[T]) (*Handle[T], error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, errors.Closed(errors.PhaseTable, "resource table")
		}

		if e, ok := c.names[name]; ok {
			h, ev := c.reference(e, name)
			c.mu.Unlock()
			c.notify(ev)
			return h, nil
		}

		if call, ok := c.loading[name]; ok {
			c.mu.Unlock()
			<-call.done
			if call.err != nil {
				return nil, call.err
			}
			continue
		}

		call := &inflight{done: make(chan struct{})}
		c.loading[name] = call
		c.mu.Unlock()

		return c.build(name, factory, call)
	}
}

// build runs factory for a name marked in flight and registers the result.
func (c *Counter[T]) build(name string, factory Factory[T], call *inflight) (*Handle[T], error) {
	value, err := factory(name)

	var (
		h    *Handle[T]
		evs  []Event
		drop bool
	)
	c.mu.Lock()
	delete(c.loading, name)
	switch {
	case err != nil:
		err = errors.Load(name, err)
	case c.closed:
		err = errors.Closed(errors.PhaseTable, "resource table")
		drop = true
	default:
		h, evs, drop, err = c.register(name, value)
	}
	c.mu.Unlock()

	call.err = err
	close(call.done)

	if drop {
		Logger().Debug("discarding constructed resource",
			zap.String("name", name),
			zap.Uint32("id", value.ID()),
			zap.Error(err))
		value.Destroy()
	}
	if err != nil {
		return nil, err
	}
	c.notify(evs...)
	return h, nil
}

// Insert registers an already constructed value under name. On error the
// caller keeps ownership of value.
func (c *Counter[T]) Insert(name string, value T) (*Handle[T], error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.Closed(errors.PhaseTable, "resource table")
	}
	_, registered := c.names[name]
	_, loading := c.loading[name]
	if registered || loading {
		c.mu.Unlock()
		return nil, errors.New(errors.PhaseTable, errors.KindInvalidInput).
			Name(name).
			Detail("name already registered").
			Build()
	}

	h, evs, _, err := c.register(name, value)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.notify(evs...)
	return h, nil
}

// Get returns a handle to the resource registered under name, or an empty
// handle when the name is absent. It never constructs.
func (c *Counter[T]) Get(name string) *Handle[T] {
	c.mu.Lock()
	e, ok := c.names[name]
	if !ok || c.closed {
		c.mu.Unlock()
		return &Handle[T]{}
	}
	h, ev := c.reference(e, name)
	c.mu.Unlock()
	c.notify(ev)
	return h
}

// Unload forgets name. The resource is flagged for removal and destroyed
// when its last handle is released; a later Load of the same name builds a
// new resource. Returns false if name was not registered.
func (c *Counter[T]) Unload(name string) bool {
	c.mu.Lock()
	e, ok := c.names[name]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.names, name)
	e.names = slices.DeleteFunc(e.names, func(n string) bool { return n == name })
	if len(e.names) == 0 {
		e.pending = true
	}
	id := e.value.ID()
	ev := Event{
		Type:  EventUnloaded,
		Name:  name,
		ID:    id,
		Refs:  c.backend.References(id),
		Value: e.value,
	}
	c.mu.Unlock()

	Logger().Debug("resource unloaded",
		zap.String("name", name),
		zap.Uint32("id", id),
		zap.Uint32("refs", ev.Refs))
	c.notify(ev)
	return true
}

// AddReference increments the count for id and returns the new count.
func (c *Counter[T]) AddReference(id uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0
	}
	return c.backend.AddReference(id)
}

// SubReference decrements the count for id and returns the remaining count.
// A remaining count of zero detaches the resource from the table; the caller
// is then responsible for calling its Destroy. ok is false if id had no
// references.
func (c *Counter[T]) SubReference(id uint32) (remaining uint32, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining, ok, _ = c.subReference(id)
	return remaining, ok
}

// References returns the current count for id.
func (c *Counter[T]) References(id uint32) uint32 {
	return c.backend.References(id)
}

// Len returns the number of registered names.
func (c *Counter[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

// Pending returns the number of unloaded resources still held by handles.
func (c *Counter[T]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.live {
		if e.pending {
			n++
		}
	}
	return n
}

// Names returns the registered names in sorted order.
func (c *Counter[T]) Names() []string {
	c.mu.Lock()
	names := make([]string, 0, len(c.names))
	for n := range c.names {
		names = append(names, n)
	}
	c.mu.Unlock()
	slices.Sort(names)
	return names
}

// Snapshot describes every live resource, ordered by ID.
func (c *Counter[T]) Snapshot() []Info {
	c.mu.Lock()
	infos := make([]Info, 0, len(c.live))
	for id, e := range c.live {
		infos = append(infos, Info{
			Names:   slices.Sorted(slices.Values(e.names)),
			ID:      id,
			Refs:    c.backend.References(id),
			Pending: e.pending,
		})
	}
	c.mu.Unlock()
	slices.SortFunc(infos, func(a, b Info) int { return cmp.Compare(a.ID, b.ID) })
	return infos
}

// Subscribe adds an observer for lifecycle events.
func (c *Counter[T]) Subscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

// Unsubscribe removes an observer.
func (c *Counter[T]) Unsubscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	for i, obs := range c.observers {
		if obs == o {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

// Close destroys every live resource, named or pending, and stops accepting
// operations. Handles released afterwards are no-ops.
func (c *Counter[T]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true

	doomed := make([]*entry[T], 0, len(c.live))
	outstanding := 0
	for id, e := range c.live {
		doomed = append(doomed, e)
		outstanding += int(c.backend.References(id))
	}
	c.live = nil
	c.names = nil
	err := c.backend.Close()
	c.mu.Unlock()

	if outstanding > 0 {
		Logger().Warn("closing resource table with outstanding references",
			zap.Int("resources", len(doomed)),
			zap.Int("refs", outstanding))
	}

	for _, e := range doomed {
		c.destroy(e, "")
	}
	return err
}

// register must be called with c.mu held. An ID still held by an unloaded
// resource is refused; drop then reports whether value is a separate
// instance from the held one.
func (c *Counter[T]) register(name string, value T) (h *Handle[T], evs []Event, drop bool, err error) {
	id := value.ID()
	e, alias := c.live[id]
	if alias && e.pending {
		return nil, nil, value != e.value, errors.New(errors.PhaseTable, errors.KindInvalidData).
			Name(name).
			Value(id).
			Detail("id %d is still held by an unloaded resource", id).
			Build()
	}
	if alias {
		e.names = append(e.names, name)
	} else {
		e = &entry[T]{value: value, names: []string{name}}
		c.live[id] = e
	}
	c.names[name] = e

	refs := c.backend.AddReference(id)
	Logger().Debug("resource loaded",
		zap.String("name", name),
		zap.Uint32("id", id),
		zap.Bool("alias", alias))

	h = &Handle[T]{table: c, e: e, name: name}
	return h, []Event{
		{Type: EventLoaded, Name: name, ID: id, Refs: refs, Value: e.value},
	}, false, nil
}

// reference must be called with c.mu held.
func (c *Counter[T]) reference(e *entry[T], name string) (*Handle[T], Event) {
	id := e.value.ID()
	refs := c.backend.AddReference(id)
	return &Handle[T]{table: c, e: e, name: name},
		Event{Type: EventReferenced, Name: name, ID: id, Refs: refs, Value: e.value}
}

// subReference must be called with c.mu held. At zero the entry is detached
// from both indexes and returned so the caller can destroy it unlocked.
func (c *Counter[T]) subReference(id uint32) (uint32, bool, *entry[T]) {
	if c.closed {
		return 0, false, nil
	}
	remaining, ok := c.backend.SubReference(id)
	if !ok || remaining > 0 {
		return remaining, ok, nil
	}

	e := c.live[id]
	if e == nil {
		return 0, true, nil
	}
	delete(c.live, id)
	for _, n := range e.names {
		if c.names[n] == e {
			delete(c.names, n)
		}
	}
	return 0, true, e
}

// release drops one handle reference and destroys the resource at zero.
func (c *Counter[T]) release(h *Handle[T]) {
	id := h.e.value.ID()

	c.mu.Lock()
	remaining, ok, doomed := c.subReference(id)
	c.mu.Unlock()
	if !ok {
		return
	}

	c.notify(Event{Type: EventReleased, Name: h.name, ID: id, Refs: remaining, Value: h.e.value})
	if doomed != nil {
		c.destroy(doomed, h.name)
	}
}

func (c *Counter[T]) destroy(e *entry[T], name string) {
	id := e.value.ID()
	Logger().Debug("resource destroyed",
		zap.String("name", name),
		zap.Uint32("id", id),
		zap.Bool("pending", e.pending),
		zap.String("type", fmt.Sprintf("%T", e.value)))
	e.value.Destroy()
	c.notify(Event{Type: EventDestroyed, Name: name, ID: id, Value: e.value})
}

func (c *Counter[T]) notify(events ...Event) {
	c.obsMu.RLock()
	defer c.obsMu.RUnlock()
	for _, e := range events {
		for _, o := range c.observers {
			o.OnResourceEvent(e)
		}
	}
}
