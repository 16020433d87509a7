package fixed

import (
	"iter"

	"github.com/wippyai/extres/errors"
)

// Array is a fixed-capacity sequence. Slots in [Len, Cap) hold the zero T.
type Array[T any] struct {
	data    []T
	n       int
	destroy func(*T)
	copier  func(T) T
}

// Option configures an Array.
type Option[T any] func(*Array[T])

// WithDestructor sets a function run on every element removed by Erase,
// EraseRange, RemoveFunc or Clear.
func WithDestructor[T any](fn func(*T)) Option[T] {
	return func(a *Array[T]) { a.destroy = fn }
}

// WithCopier sets the element copy used by Clone. Without one, Clone copies
// elements by assignment.
func WithCopier[T any](fn func(T) T) Option[T] {
	return func(a *Array[T]) { a.copier = fn }
}

// New creates an empty array holding at most capacity elements.
// A negative capacity is treated as zero.
func New[T any](capacity int, opts ...Option[T]) *Array[T] {
	if capacity < 0 {
		capacity = 0
	}
	a := &Array[T]{data: make([]T, capacity)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return a.n }

// Cap returns the fixed capacity.
func (a *Array[T]) Cap() int { return len(a.data) }

// Empty reports whether the array has no elements.
func (a *Array[T]) Empty() bool { return a.n == 0 }

// Full reports whether another insertion would overflow.
func (a *Array[T]) Full() bool { return a.n == len(a.data) }

// PushBack appends v. It fails with an overflow error when the array is full.
func (a *Array[T]) PushBack(v T) error {
	if a.Full() {
		return errors.CapacityExceeded(errors.PhaseArray, len(a.data))
	}
	a.data[a.n] = v
	a.n++
	return nil
}

// EmplaceBack initializes the next slot in place with init. It fails with
// an overflow error when the array is full.
func (a *Array[T]) EmplaceBack(init func(*T)) error {
	if a.Full() {
		return errors.CapacityExceeded(errors.PhaseArray, len(a.data))
	}
	if init != nil {
		init(&a.data[a.n])
	}
	a.n++
	return nil
}

// At returns the element at i.
func (a *Array[T]) At(i int) (T, error) {
	if i < 0 || i >= a.n {
		var zero T
		return zero, errors.OutOfBounds(errors.PhaseArray, i, a.n)
	}
	return a.data[i], nil
}

// Ref returns a pointer to the element at i. The pointer is valid until the
// element is erased or the array is moved.
func (a *Array[T]) Ref(i int) (*T, error) {
	if i < 0 || i >= a.n {
		return nil, errors.OutOfBounds(errors.PhaseArray, i, a.n)
	}
	return &a.data[i], nil
}

// Set replaces the element at i without running the destructor.
func (a *Array[T]) Set(i int, v T) error {
	if i < 0 || i >= a.n {
		return errors.OutOfBounds(errors.PhaseArray, i, a.n)
	}
	a.data[i] = v
	return nil
}

// Front returns the first element.
func (a *Array[T]) Front() (T, error) {
	return a.At(0)
}

// Back returns the last element.
func (a *Array[T]) Back() (T, error) {
	return a.At(a.n - 1)
}

// Erase destroys the element at i and shifts the tail down by one.
func (a *Array[T]) Erase(i int) error {
	if i < 0 || i >= a.n {
		return errors.OutOfBounds(errors.PhaseArray, i, a.n)
	}
	return a.EraseRange(i, i+1)
}

// EraseRange destroys the elements in [first, last) and shifts the tail
// down to close the gap.
func (a *Array[T]) EraseRange(first, last int) error {
	if first < 0 || last > a.n || first > last {
		return errors.New(errors.PhaseArray, errors.KindOutOfBounds).
			Detail("range [%d, %d) invalid for length %d", first, last, a.n).
			Build()
	}
	if first == last {
		return nil
	}
	if a.destroy != nil {
		for i := first; i < last; i++ {
			a.destroy(&a.data[i])
		}
	}
	moved := copy(a.data[first:], a.data[last:a.n])
	clear(a.data[first+moved : a.n])
	a.n -= last - first
	return nil
}

// Partition reorders the elements so that those for which keep returns true
// come first, in their original order, and returns their count. Elements
// past the returned index are left for the caller to erase; their order is
// unspecified.
func (a *Array[T]) Partition(keep func(*T) bool) int {
	p := 0
	for i := 0; i < a.n; i++ {
		if keep(&a.data[i]) {
			if i != p {
				a.data[p], a.data[i] = a.data[i], a.data[p]
			}
			p++
		}
	}
	return p
}

// RemoveFunc destroys every element for which match returns true and
// compacts the rest. It returns the number of elements removed.
func (a *Array[T]) RemoveFunc(match func(*T) bool) int {
	p := a.Partition(func(v *T) bool { return !match(v) })
	removed := a.n - p
	_ = a.EraseRange(p, a.n)
	return removed
}

// Clear destroys every element.
func (a *Array[T]) Clear() {
	_ = a.EraseRange(0, a.n)
}

// Clone returns a deep copy with the same capacity and options.
func (a *Array[T]) Clone() *Array[T] {
	c := &Array[T]{
		data:    make([]T, len(a.data)),
		n:       a.n,
		destroy: a.destroy,
		copier:  a.copier,
	}
	if a.copier == nil {
		copy(c.data, a.data[:a.n])
		return c
	}
	for i := 0; i < a.n; i++ {
		c.data[i] = a.copier(a.data[i])
	}
	return c
}

// Move transfers the storage to a new Array. The source is left with no
// storage: Len and Cap both return zero and every insertion overflows.
func (a *Array[T]) Move() *Array[T] {
	m := &Array[T]{data: a.data, n: a.n, destroy: a.destroy, copier: a.copier}
	a.data = nil
	a.n = 0
	return m
}

// All returns an iterator over index/value pairs.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < a.n; i++ {
			if !yield(i, a.data[i]) {
				return
			}
		}
	}
}

// Slice returns the elements as a slice sharing the array's storage.
// Its capacity is clipped so appending cannot write past Len.
func (a *Array[T]) Slice() []T {
	return a.data[:a.n:a.n]
}
