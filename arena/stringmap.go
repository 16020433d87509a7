package arena

import (
	"github.com/cespare/xxhash"

	"github.com/wippyai/extres"
	"github.com/wippyai/extres/errors"
)

type mapEntry[V any] struct {
	key   []byte
	value V
}

// StringMap is a string-keyed map whose key bytes live in an Allocator
// rather than on the Go heap. Keys are bucketed by their xxhash digest.
//
// StringMap is not safe for concurrent use, even over a SafeArena.
type StringMap[V any] struct {
	alloc   extres.Allocator
	buckets map[uint64][]mapEntry[V]
	n       int
}

// NewStringMap creates an empty map storing keys in alloc.
func NewStringMap[V any](alloc extres.Allocator) *StringMap[V] {
	return &StringMap[V]{
		alloc:   alloc,
		buckets: make(map[uint64][]mapEntry[V]),
	}
}

// Set stores v under key, copying key into the allocator on first insert.
func (m *StringMap[V]) Set(key string, v V) error {
	if m.buckets == nil {
		return errors.Closed(errors.PhaseAlloc, "string map")
	}
	h := xxhash.Sum64String(key)
	bucket := m.buckets[h]
	for i := range bucket {
		if string(bucket[i].key) == key {
			bucket[i].value = v
			return nil
		}
	}

	stored, err := m.alloc.Allocate(len(key))
	if err != nil {
		return errors.Wrap(errors.PhaseAlloc, errors.KindAllocation, err, "store map key")
	}
	copy(stored, key)
	m.buckets[h] = append(bucket, mapEntry[V]{key: stored, value: v})
	m.n++
	return nil
}

// Get returns the value stored under key.
func (m *StringMap[V]) Get(key string) (V, bool) {
	for _, e := range m.buckets[xxhash.Sum64String(key)] {
		if string(e.key) == key {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Delete removes key and returns its storage to the allocator.
// Returns false if key was absent.
func (m *StringMap[V]) Delete(key string) (bool, error) {
	h := xxhash.Sum64String(key)
	bucket := m.buckets[h]
	for i, e := range bucket {
		if string(e.key) != key {
			continue
		}
		bucket[i] = bucket[len(bucket)-1]
		bucket = bucket[:len(bucket)-1]
		if len(bucket) == 0 {
			delete(m.buckets, h)
		} else {
			m.buckets[h] = bucket
		}
		m.n--
		return true, m.free(e.key)
	}
	return false, nil
}

// Len returns the number of keys.
func (m *StringMap[V]) Len() int {
	return m.n
}

// Range calls fn for each entry in unspecified order until fn returns false.
// fn must not modify the map.
func (m *StringMap[V]) Range(fn func(key string, v V) bool) {
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			if !fn(string(e.key), e.value) {
				return
			}
		}
	}
}

// Release returns every key to the allocator and empties the map.
// The map cannot be used afterwards.
func (m *StringMap[V]) Release() error {
	var first error
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			if err := m.free(e.key); err != nil && first == nil {
				first = err
			}
		}
	}
	m.buckets = nil
	m.n = 0
	return first
}

func (m *StringMap[V]) free(key []byte) error {
	if len(key) == 0 {
		return nil
	}
	return m.alloc.Deallocate(key)
}
