package resource

// Handle is one counted reference to a table resource. Every handle
// returned by the table, and every Clone, holds one reference to the
// resource's ID and must be released exactly once; Release is idempotent.
//
// The zero value and the handle returned by Get for a missing name are
// empty: Valid reports false and Release does nothing.
type Handle[T Counted] struct {
	table *Counter[T]
	e     *entry[T]
	name  string
}

// Valid reports whether h references a resource.
func (h *Handle[T]) Valid() bool {
	return h != nil && h.e != nil
}

// Value returns the resource, or the zero T for an empty handle.
func (h *Handle[T]) Value() T {
	if !h.Valid() {
		var zero T
		return zero
	}
	return h.e.value
}

// ID returns the resource ID, or 0 for an empty handle.
func (h *Handle[T]) ID() uint32 {
	if !h.Valid() {
		return 0
	}
	return h.e.value.ID()
}

// Name returns the name the handle was obtained under.
func (h *Handle[T]) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

// Clone returns a new handle to the same resource, adding a reference.
// The clone is empty when h is empty or its table is closed.
func (h *Handle[T]) Clone() *Handle[T] {
	if !h.Valid() {
		return &Handle[T]{}
	}
	if h.table.AddReference(h.e.value.ID()) == 0 {
		return &Handle[T]{}
	}
	return &Handle[T]{table: h.table, e: h.e, name: h.name}
}

// Release drops the reference. The last reference to an ID destroys the
// resource.
func (h *Handle[T]) Release() {
	if !h.Valid() {
		return
	}
	t := *h
	h.table, h.e = nil, nil
	t.table.release(&t)
}

// Assign makes h reference what other references, releasing h's previous
// resource. Assigning a handle to itself, or to a handle of the same
// resource, keeps the count unchanged.
func (h *Handle[T]) Assign(other *Handle[T]) {
	if h == other {
		return
	}
	next := other.Clone()
	h.Release()
	*h = *next
}

// Equal reports whether both handles reference equal resources.
func (h *Handle[T]) Equal(other *Handle[T]) bool {
	if !h.Valid() || !other.Valid() {
		return h.Valid() == other.Valid()
	}
	return h.e.value == other.e.value
}
