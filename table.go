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

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

const (
	debug = false

	defaultCapacity = 20
	// An insert may only complete while used+1 <= capacity*3/4.
	maxLoadNum   = 3
	maxLoadDen   = 4
	resizeFactor = 2
	// Slot indexes are derived from 32-bit hashes, and chain links are ints.
	maxCapacity = 1<<31 - 1

	// chainEnd terminates the insertion-order chain.
	chainEnd = -1
)

// ErrOutOfMemory is returned when the slot array cannot be allocated, either
// because the Allocator failed or because the capacity would overflow.
var ErrOutOfMemory = errors.New("bytemap: out of memory")

type slotState uint8

const (
	slotEmpty slotState = iota
	slotLive
	slotTombstone
)

// Slot holds a borrowed key, the cached hash of the key, the value, and the
// index of the next entry in insertion order. The zero value is an empty
// slot.
type Slot[V any] struct {
	key   []byte
	value V
	// next is only meaningful for live slots and tombstones.
	next  int
	hash  uint32
	state slotState
}

// table is the storage shared by Map and RemovableMap: an open-addressing
// slot array probed linearly, with an intrusive singly linked list threading
// the entries in the order they were first inserted.
type table[V any] struct {
	hash      Hasher
	allocator Allocator[V]
	slots     []Slot[V]
	// The number of live slots plus tombstones. Both occupy probe space, so
	// the load factor is computed from used.
	used       int
	tombstones int
	// first is the index of the oldest entry, or chainEnd.
	first int
	// tail points at the next field of the newest entry, or at first while
	// the chain is empty, so appending is a single store through tail. It
	// points into the table itself: a Map must not be copied.
	tail *int
	// removable is only consulted by invariant checks; a Map that never
	// removes simply never creates tombstones.
	removable       bool
	initialCapacity int
}

func (t *table[V]) init(removable bool, options []option[V]) error {
	t.hash = FNV1a
	t.allocator = defaultAllocator[V]{}
	t.initialCapacity = defaultCapacity
	t.removable = removable

	for _, op := range options {
		op.apply(t)
	}

	if t.initialCapacity > maxCapacity {
		return ErrOutOfMemory
	}
	slots, err := t.alloc(t.initialCapacity)
	if err != nil {
		return err
	}
	t.slots = slots
	t.resetChain()
	t.checkInvariants()
	return nil
}

func (t *table[V]) alloc(n int) ([]Slot[V], error) {
	slots := t.allocator.AllocSlots(n)
	if len(slots) < n {
		if slots != nil {
			t.allocator.FreeSlots(slots)
		}
		return nil, ErrOutOfMemory
	}
	slots = slots[:n]
	// Allocators may recycle memory; every slot must start out empty.
	clear(slots)
	return slots, nil
}

func (t *table[V]) resetChain() {
	t.first = chainEnd
	t.tail = &t.first
}

// link appends slot i to the end of the insertion-order chain.
func (t *table[V]) link(i int) {
	t.slots[i].next = chainEnd
	*t.tail = i
	t.tail = &t.slots[i].next
}

func (t *table[V]) needsGrow() bool {
	return int64(t.used+1)*maxLoadDen > int64(len(t.slots))*maxLoadNum
}

// find returns the slot that is authoritative for key: either the live slot
// holding key, or the first empty slot on its probe path. Tombstones are
// stepped over and never returned. Termination relies on the load factor
// bound leaving at least one empty slot.
func (t *table[V]) find(key []byte, h uint32) int {
	capacity := uint32(len(t.slots))
	i := h % capacity
	for {
		s := &t.slots[i]
		switch s.state {
		case slotEmpty:
			return int(i)
		case slotLive:
			// Cheapest comparisons first; bytes are only compared once the
			// length and the cached hash agree.
			if len(s.key) == len(key) && s.hash == h && bytes.Equal(s.key, key) {
				return int(i)
			}
		}
		if debug {
			fmt.Printf("find(%q): index=%d state=%d collision\n", key, i, s.state)
		}
		if i++; i == capacity {
			i = 0
		}
	}
}

func (t *table[V]) insertAt(i int, key []byte, h uint32, value V) {
	s := &t.slots[i]
	s.key = key
	s.hash = h
	s.value = value
	s.state = slotLive
	t.link(i)
	t.used++
}

// prepareInsert grows the table if one more entry would exceed the maximum
// load factor. Every set-shaped operation calls it, including those that end
// up overwriting.
func (t *table[V]) prepareInsert() error {
	if !t.needsGrow() {
		return nil
	}
	capacity := len(t.slots)
	if capacity > maxCapacity/resizeFactor {
		return ErrOutOfMemory
	}
	return t.resize(capacity * resizeFactor)
}

// set inserts or overwrites key. When replaceKey is set an overwrite first
// hands the old key and value to evict (if non-nil) and then stores the new
// key reference; otherwise the original key reference is kept.
func (t *table[V]) set(key []byte, value V, replaceKey bool, evict EvictFunc[V]) (Result, error) {
	if err := t.prepareInsert(); err != nil {
		return OutOfMemory, err
	}

	h := t.hash(key)
	i := t.find(key, h)
	s := &t.slots[i]
	if s.state == slotEmpty {
		t.insertAt(i, key, h, value)
		if debug {
			fmt.Printf("set(%q): index=%d inserted used=%d\n", key, i, t.used)
		}
		t.checkInvariants()
		return Inserted, nil
	}

	if replaceKey {
		if evict != nil {
			evict(s.key, s.value)
		}
		s.key = key
	}
	s.value = value
	if debug {
		fmt.Printf("set(%q): index=%d overwritten\n", key, i)
	}
	return Overwritten, nil
}

// getOrSet grows the table before the lookup like set does. A failed growth
// only fails the call when key is absent.
func (t *table[V]) getOrSet(key []byte, value V) (V, bool, error) {
	h := t.hash(key)
	growErr := t.prepareInsert()
	i := t.find(key, h)
	s := &t.slots[i]
	if s.state == slotLive {
		return s.value, true, nil
	}
	if growErr != nil {
		return value, false, growErr
	}
	t.insertAt(i, key, h, value)
	t.checkInvariants()
	return value, false, nil
}

func (t *table[V]) get(key []byte) (value V, ok bool) {
	s := &t.slots[t.find(key, t.hash(key))]
	if s.state != slotLive {
		return value, false
	}
	return s.value, true
}

// remove turns the slot holding key into a tombstone. The tombstone keeps
// its place in the chain and in probe sequences until the next resize.
func (t *table[V]) remove(key []byte, evict EvictFunc[V]) bool {
	h := t.hash(key)
	i := t.find(key, h)
	s := &t.slots[i]
	if s.state != slotLive {
		return false
	}
	if evict != nil {
		evict(s.key, s.value)
	}
	*s = Slot[V]{next: s.next, hash: h, state: slotTombstone}
	t.tombstones++
	if debug {
		fmt.Printf("remove(%q): index=%d len=%d tombstones=%d\n", key, i, t.len(), t.tombstones)
	}
	t.checkInvariants()
	return true
}

// resize moves every live entry into a new slot array of the given capacity.
// The old chain is walked from its head, so the new chain comes out in the
// same order; tombstones are dropped along the way. On allocation failure the
// table is left untouched.
func (t *table[V]) resize(newCapacity int) error {
	slots, err := t.alloc(newCapacity)
	if err != nil {
		return err
	}
	if debug {
		fmt.Printf("resize: capacity=%d->%d used=%d tombstones=%d\n",
			len(t.slots), newCapacity, t.used, t.tombstones)
	}

	oldSlots, oldFirst := t.slots, t.first
	t.slots = slots
	t.resetChain()
	t.used -= t.tombstones
	t.tombstones = 0

	capacity := uint32(newCapacity)
	for i := oldFirst; i != chainEnd; {
		old := &oldSlots[i]
		i = old.next
		if old.state != slotLive {
			continue
		}
		// Keys are unique, so placement only needs the first empty slot.
		j := old.hash % capacity
		for t.slots[j].state != slotEmpty {
			if j++; j == capacity {
				j = 0
			}
		}
		t.slots[j] = *old
		t.link(int(j))
	}

	t.allocator.FreeSlots(oldSlots)
	t.checkInvariants()
	return nil
}

// iterate walks the chain calling fn for each live entry. A negative result
// stops the walk and is returned; otherwise the last result is returned.
func (t *table[V]) iterate(fn IterFunc[V]) int {
	var r int
	for i := t.first; i != chainEnd; {
		s := &t.slots[i]
		i = s.next
		if s.state != slotLive {
			continue
		}
		if r = fn(s.key, s.value); r < 0 {
			return r
		}
	}
	return r
}

func (t *table[V]) all(yield func(key []byte, value V) bool) {
	for i := t.first; i != chainEnd; {
		s := &t.slots[i]
		i = s.next
		if s.state == slotLive && !yield(s.key, s.value) {
			return
		}
	}
}

func (t *table[V]) len() int {
	return t.used - t.tombstones
}

func (t *table[V]) clear() {
	clear(t.slots)
	t.used = 0
	t.tombstones = 0
	t.resetChain()
}

func (t *table[V]) close() {
	if t.slots != nil {
		t.allocator.FreeSlots(t.slots)
		t.slots = nil
	}
	t.used = 0
	t.tombstones = 0
	t.resetChain()
}

func (t *table[V]) checkInvariants() {
	if !invariants {
		return
	}
	capacity := len(t.slots)
	if capacity <= 0 {
		panic(fmt.Sprintf("invariant failed: capacity is %d", capacity))
	}
	if int64(t.used)*maxLoadDen > int64(capacity)*maxLoadNum {
		panic(fmt.Sprintf("invariant failed: used=%d exceeds max load of capacity=%d\n%s",
			t.used, capacity, t.debugString()))
	}
	if !t.removable && t.tombstones != 0 {
		panic(fmt.Sprintf("invariant failed: %d tombstones in a map without removal", t.tombstones))
	}

	// The chain must visit every occupied slot exactly once and end at tail.
	seen := make([]bool, capacity)
	var live, deleted int
	last := &t.first
	for i := t.first; i != chainEnd; i = t.slots[i].next {
		if seen[i] {
			panic(fmt.Sprintf("invariant failed: chain revisits slot %d\n%s", i, t.debugString()))
		}
		seen[i] = true
		s := &t.slots[i]
		switch s.state {
		case slotLive:
			if h := t.hash(s.key); h != s.hash {
				panic(fmt.Sprintf("invariant failed: slot(%d): %q cached hash %08x != %08x",
					i, s.key, s.hash, h))
			}
			if j := t.find(s.key, s.hash); j != i {
				panic(fmt.Sprintf("invariant failed: slot(%d): %q found at %d\n%s",
					i, s.key, j, t.debugString()))
			}
			live++
		case slotTombstone:
			deleted++
		default:
			panic(fmt.Sprintf("invariant failed: chain reaches empty slot %d\n%s", i, t.debugString()))
		}
		last = &s.next
	}
	if last != t.tail {
		panic(fmt.Sprintf("invariant failed: tail does not follow the last chained slot\n%s", t.debugString()))
	}
	for i := range t.slots {
		if t.slots[i].state != slotEmpty && !seen[i] {
			panic(fmt.Sprintf("invariant failed: slot(%d) is occupied but not chained\n%s", i, t.debugString()))
		}
	}
	if live+deleted != t.used || deleted != t.tombstones {
		panic(fmt.Sprintf("invariant failed: found live=%d tombstones=%d, but used=%d tombstones=%d\n%s",
			live, deleted, t.used, t.tombstones, t.debugString()))
	}
}

func (t *table[V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  tombstones=%d  first=%d\n",
		len(t.slots), t.used, t.tombstones, t.first)
	for i := range t.slots {
		s := &t.slots[i]
		switch s.state {
		case slotEmpty:
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		case slotTombstone:
			fmt.Fprintf(&buf, "  %4d: tombstone [next=%d]\n", i, s.next)
		default:
			fmt.Fprintf(&buf, "  %4d: %q [hash=%08x home=%d next=%d]\n",
				i, s.key, s.hash, s.hash%uint32(len(t.slots)), s.next)
		}
	}
	return buf.String()
}
