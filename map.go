// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bytemap is an insertion-ordered hash map from byte-sequence keys
// to values.
//
// # Layout
//
// Entries live directly in a single slot array (open addressing). A key's
// home slot is hash(key) % capacity, and collisions are resolved by linear
// probing: the next slot is tried, wrapping at the end of the array, until
// either the key or an empty slot is found. Each slot caches the hash of its
// key so that probing compares key length, then cached hash, and only then
// the key bytes.
//
// An intrusive singly linked list is threaded through the slot array. Every
// newly inserted entry is appended to it, so iteration visits entries in the
// order they were first inserted regardless of where they landed in the
// array. Overwriting an entry does not move it.
//
// # Growth
//
// Before any insert-shaped operation the map checks whether one more entry
// would push it over a load factor of 3/4, and if so doubles the capacity.
// Resizing walks the old chain from its head and re-places each entry in the
// new array, which rebuilds the chain in the same order. The capacity never
// shrinks.
//
// # Removal
//
// Map does not support removal. RemovableMap does, using tombstones: a
// removed slot is marked deleted but stays in the chain and in probe
// sequences, and is not reused until the next resize discards it. Probes
// have to step over tombstones, which is why removal is a separate type.
//
// # Ownership
//
// Keys are borrowed. The map stores the caller's slice and never copies,
// modifies or frees it; the caller must keep the bytes valid and unchanged
// for as long as the entry exists. SetFunc and RemoveFunc hand the old key
// and value to a callback at the moment they leave the map so the caller can
// release them. OwnedMap is a wrapper that copies keys instead.
//
// A Map is NOT goroutine-safe, and must not be mutated while it is being
// iterated.
package bytemap

import "fmt"

// Result reports the outcome of a set-shaped operation.
type Result uint8

const (
	// Inserted means a new entry was created.
	Inserted Result = iota
	// Overwritten means an existing entry's value was replaced.
	Overwritten
	// OutOfMemory means the map needed to grow and could not. The map is
	// unchanged and the accompanying error is ErrOutOfMemory.
	OutOfMemory
)

func (r Result) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Overwritten:
		return "overwritten"
	case OutOfMemory:
		return "out-of-memory"
	default:
		return fmt.Sprintf("Result(%d)", uint8(r))
	}
}

// EvictFunc receives a key and value as they leave the map.
type EvictFunc[V any] func(key []byte, value V)

// IterFunc is called for each entry by Iterate. A negative return value
// stops the iteration.
type IterFunc[V any] func(key []byte, value V) int

// Container is the set of operations supported by every map.
type Container[V any] interface {
	Set(key []byte, value V) (Result, error)
	SetFunc(key []byte, value V, evict EvictFunc[V]) (Result, error)
	Get(key []byte) (V, bool)
	GetOrSet(key []byte, value V) (actual V, existed bool, err error)
	Len() int
	Iterate(fn IterFunc[V]) int
	All(yield func(key []byte, value V) bool)
	Close()
}

// Removable is a Container that also supports removal.
type Removable[V any] interface {
	Container[V]
	Remove(key []byte) bool
	RemoveFunc(key []byte, evict EvictFunc[V]) bool
}

var (
	_ Container[uintptr] = (*Map[uintptr])(nil)
	_ Removable[uintptr] = (*RemovableMap[uintptr])(nil)
)

// Map is an insertion-ordered map from borrowed byte-slice keys to values of
// type V, without removal support.
type Map[V any] struct {
	table[V]
}

// New constructs an empty Map with the default capacity of 20 slots unless
// WithCapacity says otherwise. ErrOutOfMemory is returned if the slot array
// cannot be allocated.
func New[V any](options ...option[V]) (*Map[V], error) {
	m := &Map[V]{}
	if err := m.init(false, options); err != nil {
		return nil, err
	}
	return m, nil
}

// Close releases the slot array back to the configured allocator. It never
// touches keys or values. It is invalid to use a Map after it has been
// closed, though Close itself is idempotent.
func (m *Map[V]) Close() {
	m.close()
}

// Set inserts an entry, or overwrites the value of an existing entry with
// the same key. The key is not copied. On overwrite the map keeps the key
// slice it already holds.
func (m *Map[V]) Set(key []byte, value V) (Result, error) {
	return m.set(key, value, false, nil)
}

// SetFunc is like Set, but when overwriting it first calls evict with the
// old key and value and then replaces the stored key with key, which lets
// the caller free the old key. evict may be nil.
func (m *Map[V]) SetFunc(key []byte, value V, evict EvictFunc[V]) (Result, error) {
	return m.set(key, value, true, evict)
}

// Get retrieves the value for key, returning ok=false if it is not present.
func (m *Map[V]) Get(key []byte) (value V, ok bool) {
	return m.get(key)
}

// GetOrSet returns the existing value for key with existed=true, leaving the
// map unchanged. Otherwise it inserts value and returns it with
// existed=false. ErrOutOfMemory is only returned for an absent key.
func (m *Map[V]) GetOrSet(key []byte, value V) (actual V, existed bool, err error) {
	return m.getOrSet(key, value)
}

// Len returns the number of entries in the map.
func (m *Map[V]) Len() int {
	return m.len()
}

// Capacity returns the number of slots in the slot array.
func (m *Map[V]) Capacity() int {
	return len(m.slots)
}

// Iterate calls fn for each entry in insertion order. If fn returns a
// negative value the iteration stops and that value is returned; otherwise
// the value returned by the last call is (0 for an empty map).
func (m *Map[V]) Iterate(fn IterFunc[V]) int {
	return m.iterate(fn)
}

// All calls yield sequentially for each key and value in insertion order.
// If yield returns false, All stops the iteration. It can be used with a
// range-over-func loop:
//
//	for k, v := range m.All {
//	  fmt.Printf("%s: %v\n", k, v)
//	}
func (m *Map[V]) All(yield func(key []byte, value V) bool) {
	m.all(yield)
}

// Clear removes all entries, retaining the current capacity.
func (m *Map[V]) Clear() {
	m.clear()
}

// RemovableMap is a Map that also supports Remove and RemoveFunc.
type RemovableMap[V any] struct {
	Map[V]
}

// NewRemovable constructs an empty RemovableMap. See New.
func NewRemovable[V any](options ...option[V]) (*RemovableMap[V], error) {
	m := &RemovableMap[V]{}
	if err := m.init(true, options); err != nil {
		return nil, err
	}
	return m, nil
}

// Remove deletes the entry for key, returning whether it was present. The
// key and value are not freed. The slot is only reclaimed by the next
// resize.
func (m *RemovableMap[V]) Remove(key []byte) bool {
	return m.remove(key, nil)
}

// RemoveFunc is like Remove, but calls evict with the entry's key and value
// before it is removed. evict may be nil.
func (m *RemovableMap[V]) RemoveFunc(key []byte, evict EvictFunc[V]) bool {
	return m.remove(key, evict)
}
