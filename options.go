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

package bytemap

// option provide an interface to do work on a Map while it is being created.
type option[V any] interface {
	apply(t *table[V])
}

type capacityOption[V any] struct {
	capacity int
}

func (op capacityOption[V]) apply(t *table[V]) {
	if op.capacity > 0 {
		t.initialCapacity = op.capacity
	}
}

// WithCapacity is an option to specify the initial number of slots of a
// Map[V]. Values <= 0 leave the default of 20 in place. Capacity is not
// rounded: any positive slot count works with modulo indexing.
func WithCapacity[V any](capacity int) option[V] {
	return capacityOption[V]{capacity}
}

type hasherOption[V any] struct {
	hash Hasher
}

func (op hasherOption[V]) apply(t *table[V]) {
	if op.hash != nil {
		t.hash = op.hash
	}
}

// WithHasher is an option to specify the hash function to use for a Map[V].
// The default is FNV1a.
func WithHasher[V any](hash Hasher) option[V] {
	return hasherOption[V]{hash}
}

// Allocator specifies an interface for allocating and releasing the slot
// array used by a Map. The default allocator utilizes Go's builtin make() and
// allows the GC to reclaim memory.
//
// If the allocator is manually managing memory then Map.Close must be called
// in order to ensure FreeSlots is called for the final slot array.
type Allocator[V any] interface {
	// AllocSlots should return a slice equivalent to make([]Slot[V], n). A
	// slice shorter than n (including nil) reports an allocation failure,
	// which the Map surfaces as ErrOutOfMemory.
	AllocSlots(n int) []Slot[V]

	// FreeSlots can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by AllocSlots.
	FreeSlots(v []Slot[V])
}

type defaultAllocator[V any] struct{}

func (defaultAllocator[V]) AllocSlots(n int) []Slot[V] {
	return make([]Slot[V], n)
}

func (defaultAllocator[V]) FreeSlots(v []Slot[V]) {
}

type allocatorOption[V any] struct {
	allocator Allocator[V]
}

func (op allocatorOption[V]) apply(t *table[V]) {
	if op.allocator != nil {
		t.allocator = op.allocator
	}
}

// WithAllocator is an option for specify the Allocator to use for a Map[V].
func WithAllocator[V any](allocator Allocator[V]) option[V] {
	return allocatorOption[V]{allocator}
}
