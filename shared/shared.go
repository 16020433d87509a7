// Package shared provides reference-counted cells with weak observers.
//
// A Shared handle keeps its payload alive; the payload's destructor runs
// exactly once, when the last Shared handle is released. A Weak handle
// observes the same cell without owning the payload and can be locked
// back into a Shared handle while at least one owner remains.
//
//	tex := shared.New(texture, func(t *Texture) { t.Free() })
//	defer tex.Release()
//
//	w := tex.Downgrade()
//	defer w.Release()
//
//	if s := w.Lock(); s.Valid() {
//	    defer s.Release()
//	    draw(s.Get())
//	}
//
// Counts are atomic, so distinct handles to the same cell may be used from
// different goroutines. A single handle value is owned by one goroutine.
package shared

import (
	"fmt"
	"sync/atomic"

	"github.com/wippyai/extres/errors"
)

// control is the per-cell bookkeeping record.
// All strong owners together hold one reference in weak, so whichever of
// the two counts drains last frees the block.
type control[T any] struct {
	value   atomic.Pointer[T]
	destroy func(*T)
	strong  atomic.Int64
	weak    atomic.Int64
	freed   atomic.Bool
}

func (c *control[T]) acquireStrong() bool {
	for {
		n := c.strong.Load()
		if n == 0 {
			return false
		}
		if c.strong.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (c *control[T]) releaseStrong() {
	n := c.strong.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic(fmt.Sprintf("shared: strong count below zero on %T", c))
	}
	v := c.value.Swap(nil)
	if c.destroy != nil && v != nil {
		c.destroy(v)
	}
	c.releaseWeak()
}

func (c *control[T]) releaseWeak() {
	n := c.weak.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic(fmt.Sprintf("shared: weak count below zero on %T", c))
	}
	c.destroy = nil
	c.freed.Store(true)
}

// Shared is an owning reference to a cell. The zero value is empty.
type Shared[T any] struct {
	ctl *control[T]
	ptr *T
}

// New moves value into a new cell and returns its first owner.
// destroy may be nil when the payload needs no teardown.
func New[T any](value T, destroy func(*T)) *Shared[T] {
	c := &control[T]{destroy: destroy}
	p := &value
	c.value.Store(p)
	c.strong.Store(1)
	c.weak.Store(1)
	return &Shared[T]{ctl: c, ptr: p}
}

// Make constructs the payload with ctor and wraps it like New.
// A ctor failure is returned as an allocation error and no cell is created.
func Make[T any](ctor func() (T, error), destroy func(*T)) (*Shared[T], error) {
	v, err := ctor()
	if err != nil {
		var zero *T
		return nil, errors.New(errors.PhaseShared, errors.KindAllocation).
			Type(fmt.Sprintf("%T", zero)[1:]).
			Detail("construct payload").
			Cause(err).
			Build()
	}
	return New(v, destroy), nil
}

// Valid reports whether s owns a live payload.
func (s *Shared[T]) Valid() bool {
	return s != nil && s.ctl != nil
}

// Get returns the payload, or nil for an empty handle.
func (s *Shared[T]) Get() *T {
	if !s.Valid() {
		return nil
	}
	return s.ptr
}

// Clone returns another owner of the same payload.
// Cloning an empty handle yields an empty handle.
func (s *Shared[T]) Clone() *Shared[T] {
	if !s.Valid() {
		return &Shared[T]{}
	}
	s.ctl.strong.Add(1)
	return &Shared[T]{ctl: s.ctl, ptr: s.ptr}
}

// Move transfers ownership to a new handle and empties s.
// Counts are unchanged.
func (s *Shared[T]) Move() *Shared[T] {
	if !s.Valid() {
		return &Shared[T]{}
	}
	moved := &Shared[T]{ctl: s.ctl, ptr: s.ptr}
	s.ctl, s.ptr = nil, nil
	return moved
}

// Release drops this owner. The last owner runs the destructor.
// Release is idempotent per handle, so it is safe to defer it and still
// release early.
func (s *Shared[T]) Release() {
	if !s.Valid() {
		return
	}
	c := s.ctl
	s.ctl, s.ptr = nil, nil
	c.releaseStrong()
}

// Downgrade returns a weak observer of the payload.
func (s *Shared[T]) Downgrade() *Weak[T] {
	if !s.Valid() {
		return &Weak[T]{}
	}
	s.ctl.weak.Add(1)
	return &Weak[T]{ctl: s.ctl}
}

// Equal reports whether both handles refer to the same payload.
// Two empty handles are equal.
func (s *Shared[T]) Equal(other *Shared[T]) bool {
	return s.Get() == other.Get()
}

// UseCount returns the number of owners. It is a snapshot.
func (s *Shared[T]) UseCount() int {
	if !s.Valid() {
		return 0
	}
	return int(s.ctl.strong.Load())
}

// WeakCount returns the number of weak observers. It is a snapshot.
func (s *Shared[T]) WeakCount() int {
	if !s.Valid() {
		return 0
	}
	return s.ctl.weakCount()
}

func (c *control[T]) weakCount() int {
	w := c.weak.Load()
	if c.strong.Load() > 0 {
		w--
	}
	return int(w)
}

// Weak is a non-owning reference to a cell. The zero value is empty.
type Weak[T any] struct {
	ctl *control[T]
}

// Lock upgrades w to an owner. It returns an empty handle once the last
// owner has been released; a destroyed payload is never revived.
func (w *Weak[T]) Lock() *Shared[T] {
	if w == nil || w.ctl == nil || !w.ctl.acquireStrong() {
		return &Shared[T]{}
	}
	return &Shared[T]{ctl: w.ctl, ptr: w.ctl.value.Load()}
}

// Expired reports whether the payload has been destroyed.
func (w *Weak[T]) Expired() bool {
	return w == nil || w.ctl == nil || w.ctl.strong.Load() == 0
}

// Clone returns another weak observer of the same cell.
func (w *Weak[T]) Clone() *Weak[T] {
	if w == nil || w.ctl == nil {
		return &Weak[T]{}
	}
	w.ctl.weak.Add(1)
	return &Weak[T]{ctl: w.ctl}
}

// UseCount returns the number of owners of the observed payload.
func (w *Weak[T]) UseCount() int {
	if w == nil || w.ctl == nil {
		return 0
	}
	return int(w.ctl.strong.Load())
}

// Release drops this observer. Idempotent per handle.
func (w *Weak[T]) Release() {
	if w == nil || w.ctl == nil {
		return
	}
	c := w.ctl
	w.ctl = nil
	c.releaseWeak()
}
