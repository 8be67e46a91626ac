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

import "bytes"

// OwnedMap is a RemovableMap that owns its keys: every key passed to Set or
// GetOrSet is copied, so callers may reuse their buffers immediately. The
// copy is dropped when the entry is overwritten or removed.
//
// If a release function is supplied, it is called with each value as it
// leaves the map: on overwrite, on removal and for every remaining entry on
// Close.
type OwnedMap[V any] struct {
	m       *RemovableMap[V]
	release func(value V)
}

// NewOwned constructs an empty OwnedMap. release may be nil.
func NewOwned[V any](release func(value V), options ...option[V]) (*OwnedMap[V], error) {
	m, err := NewRemovable[V](options...)
	if err != nil {
		return nil, err
	}
	return &OwnedMap[V]{m: m, release: release}, nil
}

func (o *OwnedMap[V]) evict(_ []byte, value V) {
	if o.release != nil {
		o.release(value)
	}
}

// Set copies key and inserts or overwrites its entry.
func (o *OwnedMap[V]) Set(key []byte, value V) (Result, error) {
	return o.m.SetFunc(bytes.Clone(key), value, o.evict)
}

// Get retrieves the value for key.
func (o *OwnedMap[V]) Get(key []byte) (V, bool) {
	return o.m.Get(key)
}

// GetOrSet is like Map.GetOrSet. The key is only retained if the entry is
// created.
func (o *OwnedMap[V]) GetOrSet(key []byte, value V) (actual V, existed bool, err error) {
	return o.m.GetOrSet(bytes.Clone(key), value)
}

// Remove deletes the entry for key, releasing its value.
func (o *OwnedMap[V]) Remove(key []byte) bool {
	return o.m.RemoveFunc(key, o.evict)
}

// Len returns the number of entries in the map.
func (o *OwnedMap[V]) Len() int {
	return o.m.Len()
}

// All calls yield for each entry in insertion order. The keys passed to
// yield belong to the map and must not be modified or retained.
func (o *OwnedMap[V]) All(yield func(key []byte, value V) bool) {
	o.m.All(yield)
}

// Iterate is like Map.Iterate.
func (o *OwnedMap[V]) Iterate(fn IterFunc[V]) int {
	return o.m.Iterate(fn)
}

// Stats returns the occupancy statistics of the underlying map.
func (o *OwnedMap[V]) Stats() Stats {
	return o.m.Stats()
}

// BucketDump renders the slot array of the underlying map.
func (o *OwnedMap[V]) BucketDump() string {
	return o.m.BucketDump()
}

// Close releases every remaining value and then the slot array. It is
// idempotent.
func (o *OwnedMap[V]) Close() {
	if o.m.slots == nil {
		return
	}
	if o.release != nil {
		o.m.All(func(_ []byte, value V) bool {
			o.release(value)
			return true
		})
	}
	o.m.Close()
}
